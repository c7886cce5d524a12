package app

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/jeremyschulman/slackapptk/registry"
	"github.com/jeremyschulman/slackapptk/request"
)

// HandleInteractive routes a classified interactive request to the handler
// registered under its embedded event id. A missing handler is logged and
// acknowledged with an empty result, not escalated: Slack requires a 200
// even when there is nothing to do, and races between view turns are
// expected.
func (a *SlackApp) HandleInteractive(rqst request.Any) (any, error) {
	switch typed := rqst.(type) {
	case *request.BlockActionRequest:
		return a.handleBlockAction(typed)
	case *request.ViewRequest:
		switch typed.Kind {
		case request.KindViewSubmission:
			return a.handleView(typed, a.IC.ViewSubmission)
		default:
			return a.handleView(typed, a.IC.ViewClosed)
		}
	case *request.DialogRequest:
		return a.handleDialog(typed)
	case *request.InteractiveMessageRequest:
		return a.handleIMsg(typed)
	case *request.OptionSelectRequest:
		return a.HandleSelect(typed)
	}

	return nil, &request.UnhandledRequestError{
		Type:    string(rqst.Base().Kind),
		Payload: rqst.Base().RawPayload,
	}
}

// handleBlockAction dispatches on the block id of the first action in the
// payload. Slack batches simultaneous actions into one payload; processing
// only the first is deliberate policy here.
func (a *SlackApp) handleBlockAction(rqst *request.BlockActionRequest) (any, error) {
	if len(rqst.Actions) == 0 {
		return nil, fmt.Errorf("block_actions payload carried no actions")
	}
	action := rqst.Actions[0]
	event := action.BlockID

	entry, ok := a.IC.BlockAction.Lookup(event)
	if !ok {
		rqst.Log.Error().Str("event", event).Msg("No handler for block action event")
		return nil, nil
	}

	if entry.Fn != nil {
		return entry.Fn(rqst)
	}

	decoded, err := request.BlockActionEvent(action)
	if err != nil {
		return nil, err
	}
	return entry.FnData(rqst, decoded)
}

func (a *SlackApp) handleView(rqst *request.ViewRequest, table *registry.Table[registry.ViewEntry]) (any, error) {
	event := rqst.View.CallbackID

	entry, ok := table.Lookup(event)
	if !ok {
		rqst.Log.Error().
			Str("table", table.Name()).
			Str("event", event).
			Msg("No handler for view event")
		return nil, nil
	}

	if entry.Fn != nil {
		return entry.Fn(rqst)
	}

	inputs, err := rqst.View.InputValues()
	if err != nil {
		return nil, err
	}
	return entry.FnInputs(rqst, inputs)
}

func (a *SlackApp) handleDialog(rqst *request.DialogRequest) (any, error) {
	fn, ok := a.IC.Dialog.Lookup(rqst.CallbackID)
	if !ok {
		rqst.Log.Error().Str("event", rqst.CallbackID).Msg("No handler for dialog event")
		return nil, nil
	}
	return fn(rqst, rqst.Submission)
}

func (a *SlackApp) handleIMsg(rqst *request.InteractiveMessageRequest) (any, error) {
	if len(rqst.Actions) == 0 {
		return nil, fmt.Errorf("interactive_message payload carried no actions")
	}

	fn, ok := a.IC.IMsg.Lookup(rqst.CallbackID)
	if !ok {
		rqst.Log.Error().Str("event", rqst.CallbackID).Msg("No handler for attachment action event")
		return nil, nil
	}

	decoded, err := request.AttachmentActionEvent(rqst.Actions[0])
	if err != nil {
		return nil, err
	}
	return fn(rqst, decoded)
}

// HandleSelect dispatches a block_suggestion request and serializes the
// handler's options into the response body Slack expects. The handler's
// return must be uniformly typed: all options, or all option groups.
func (a *SlackApp) HandleSelect(rqst *request.OptionSelectRequest) (any, error) {
	entry, ok := a.IC.Select.Lookup(rqst.ActionID)
	if !ok {
		// some registrations key on the enclosing block rather than the element
		entry, ok = a.IC.Select.Lookup(rqst.BlockID)
	}
	if !ok {
		rqst.Log.Error().
			Str("action_id", rqst.ActionID).
			Str("block_id", rqst.BlockID).
			Msg("No handler for external select event")
		return nil, nil
	}

	var result any
	var err error
	if entry.Fn != nil {
		result, err = entry.Fn(rqst)
	} else {
		decoded := request.ActionEvent{
			Type:  string(rqst.Kind),
			ID:    rqst.ActionID,
			Value: rqst.Value,
		}
		result, err = entry.FnData(rqst, decoded)
	}
	if err != nil {
		return nil, err
	}

	switch options := result.(type) {
	case nil:
		rqst.Log.Info().Str("event", rqst.ActionID).Msg("Empty return from select callback")
		return map[string]any{"options": []any{}}, nil
	case []*slack.OptionBlockObject:
		if len(options) == 0 {
			return map[string]any{"options": []any{}}, nil
		}
		return map[string]any{"options": options}, nil
	case []*slack.OptionGroupBlockObject:
		if len(options) == 0 {
			return map[string]any{"options": []any{}}, nil
		}
		return map[string]any{"option_groups": options}, nil
	}

	return nil, fmt.Errorf("unexpected return type %T from select callback %s", result, rqst.ActionID)
}
