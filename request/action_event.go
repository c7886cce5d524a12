package request

import (
	"fmt"

	"github.com/slack-go/slack"
)

// ActionEvent is one decoded user interaction: a button press, a select, a
// checkbox change. Value is a string for single-choice elements and a
// []string (selection order preserved) for multi-choice elements.
type ActionEvent struct {
	Type  string
	ID    string
	Value any
	Raw   any
}

// Str returns the value as a string, or "" when it is a multi-value.
func (e ActionEvent) Str() string {
	s, _ := e.Value.(string)
	return s
}

// List returns the value as a string list, or nil for single values.
func (e ActionEvent) List() []string {
	l, _ := e.Value.([]string)
	return l
}

// BlockActionEvent translates a raw block action element into an ActionEvent.
// Every recognized element type maps to exactly one shape; an unrecognized
// type is a classification failure, not a silent skip.
func BlockActionEvent(act *slack.BlockAction) (ActionEvent, error) {
	ev := ActionEvent{
		Type: string(act.Type),
		ID:   act.ActionID,
		Raw:  act,
	}

	switch string(act.Type) {
	case "button":
		// buttons without a value fall back to their action id
		if act.Value != "" {
			ev.Value = act.Value
		} else {
			ev.Value = act.ActionID
		}

	case "static_select", "external_select", "radio_buttons":
		ev.Value = act.SelectedOption.Value

	case "checkboxes", "multi_static_select", "multi_external_select":
		ev.Value = optionValues(act.SelectedOptions)

	case "users_select":
		ev.Value = act.SelectedUser

	case "channels_select":
		ev.Value = act.SelectedChannel

	case "conversations_select":
		ev.Value = act.SelectedConversation

	case "datepicker":
		ev.Value = act.SelectedDate

	case "plain_text_input":
		ev.Value = act.Value

	default:
		return ActionEvent{}, fmt.Errorf("unhandled block action element type: %q", act.Type)
	}

	return ev, nil
}

// AttachmentActionEvent translates an outmoded attachment action. Only the
// legacy button and select elements exist in that surface.
func AttachmentActionEvent(act *slack.AttachmentAction) (ActionEvent, error) {
	ev := ActionEvent{
		Type: string(act.Type),
		ID:   act.Name,
		Raw:  act,
	}

	switch string(act.Type) {
	case "button":
		ev.Value = act.Value

	case "select":
		if len(act.SelectedOptions) == 0 {
			return ActionEvent{}, fmt.Errorf("attachment select %q carried no selection", act.Name)
		}
		ev.Value = act.SelectedOptions[0].Value

	default:
		return ActionEvent{}, fmt.Errorf("unhandled attachment action type: %q", act.Type)
	}

	return ev, nil
}

func optionValues(opts []slack.OptionBlockObject) []string {
	values := make([]string, 0, len(opts))
	for _, opt := range opts {
		values = append(values, opt.Value)
	}
	return values
}
