// Package request classifies verified inbound Slack webhook payloads into
// typed request values, one per interaction kind. Classification runs only
// after signature verification; the raw body bytes must be consumed by the
// verifier before any form parsing.
package request

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// Kind tags each request variant with its Slack interaction kind.
type Kind string

const (
	KindCommand            Kind = "command"
	KindEvent              Kind = "event"
	KindBlockActions       Kind = Kind(slack.InteractionTypeBlockActions)
	KindViewSubmission     Kind = Kind(slack.InteractionTypeViewSubmission)
	KindViewClosed         Kind = Kind(slack.InteractionTypeViewClosed)
	KindDialogSubmission   Kind = Kind(slack.InteractionTypeDialogSubmission)
	KindInteractiveMessage Kind = Kind(slack.InteractionTypeInteractionMessage)
	KindBlockSuggestion    Kind = Kind(slack.InteractionTypeBlockSuggestion)
)

// Request carries the fields common to every inbound Slack request. It is
// constructed once per webhook call and is read-only afterwards, with the
// exception of Channel, which handlers may overwrite to redirect a reply
// (e.g. to the user's DM when the bot is not a channel member).
type Request struct {
	Kind       Kind
	RawPayload []byte

	UserID      string
	ResponseURL string
	TriggerID   string
	Channel     string

	Client *slack.Client
	Log    zerolog.Logger
}

// Base returns the common request fields; it makes every variant satisfy Any.
func (r *Request) Base() *Request { return r }

// Any is implemented by every request variant.
type Any interface {
	Base() *Request
}

// CommandRequest is an inbound slash-command invocation.
type CommandRequest struct {
	Request

	Command     string
	Text        string
	Argv        []string
	ChannelName string
}

// EventRequest is an Events API callback.
type EventRequest struct {
	Request

	Event     slackevents.EventsAPIEvent
	EventType string
	TS        string
}

// BlockActionRequest is a user interaction with a Block Kit element, either
// in a message or in an open view.
type BlockActionRequest struct {
	Request

	Surface slack.Container
	View    *View // set when the action originated inside a view
	Actions []*slack.BlockAction
	Payload *slack.InteractionCallback
}

// ViewRequest is a view_submission or view_closed payload.
type ViewRequest struct {
	Request

	View    *View
	Payload *slack.InteractionCallback
}

// DialogRequest is a (deprecated) dialog_submission payload.
type DialogRequest struct {
	Request

	CallbackID string
	Submission map[string]string
	State      map[string]any
}

// InteractiveMessageRequest is an outmoded attachment-based interaction.
type InteractiveMessageRequest struct {
	Request

	CallbackID string
	UserName   string
	Actions    []*slack.AttachmentAction
}

// OptionSelectRequest is a block_suggestion payload asking the app to
// populate an external menu-select element.
type OptionSelectRequest struct {
	Request

	ActionID string
	BlockID  string
	Value    string
}

// UnhandledRequestError reports a payload whose shape matched no known
// interaction kind. The raw payload is retained for diagnostics.
type UnhandledRequestError struct {
	Type    string
	Payload []byte
}

func (e *UnhandledRequestError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("unhandled request type: %s", e.Type)
	}
	return "unhandled request: unrecognized payload shape"
}

// Deps are the collaborators injected into every constructed request.
type Deps struct {
	Client *slack.Client
	Log    zerolog.Logger
}

// Classify produces the typed request for a verified body. Form-encoded
// bodies carry either a "payload" field (interactive components) or a
// "command" field (slash commands); JSON bodies with a top-level "event" are
// Events API callbacks. Anything else is an UnhandledRequestError.
func Classify(deps Deps, body []byte) (Any, error) {
	if form, err := url.ParseQuery(string(body)); err == nil {
		if payload := form.Get("payload"); payload != "" {
			return ParseInteractive(deps, []byte(payload))
		}
		if form.Get("command") != "" {
			return NewCommand(deps, form), nil
		}
	}

	var probe struct {
		Event json.RawMessage `json:"event"`
		Type  string          `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && len(probe.Event) > 0 {
		return NewEvent(deps, body)
	}

	return nil, &UnhandledRequestError{Payload: body}
}

// NewCommand builds a CommandRequest from the slash-command form data. The
// free-text argument string is tokenized on whitespace into Argv.
func NewCommand(deps Deps, form url.Values) *CommandRequest {
	text := form.Get("text")
	return &CommandRequest{
		Request: Request{
			Kind:        KindCommand,
			RawPayload:  []byte(form.Encode()),
			UserID:      form.Get("user_id"),
			ResponseURL: form.Get("response_url"),
			TriggerID:   form.Get("trigger_id"),
			Channel:     form.Get("channel_id"),
			Client:      deps.Client,
			Log:         deps.Log,
		},
		Command:     form.Get("command"),
		Text:        text,
		Argv:        strings.Fields(text),
		ChannelName: form.Get("channel_name"),
	}
}

// Name returns the command name without its leading slash, e.g. "ping" for
// an inbound "/ping". It is the key command CLIs register under.
func (r *CommandRequest) Name() string {
	return strings.TrimPrefix(r.Command, "/")
}

// NewEvent builds an EventRequest from an Events API JSON body.
func NewEvent(deps Deps, body []byte) (*EventRequest, error) {
	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return nil, fmt.Errorf("parsing event callback: %w", err)
	}

	var raw struct {
		Event struct {
			Type    string `json:"type"`
			User    string `json:"user"`
			Channel string `json:"channel"`
			TS      string `json:"ts"`
		} `json:"event"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding event body: %w", err)
	}

	return &EventRequest{
		Request: Request{
			Kind:       KindEvent,
			RawPayload: body,
			UserID:     raw.Event.User,
			Channel:    raw.Event.Channel,
			Client:     deps.Client,
			Log:        deps.Log,
		},
		Event:     ev,
		EventType: raw.Event.Type,
		TS:        raw.Event.TS,
	}, nil
}

// ParseInteractive decodes the JSON-encoded "payload" form field and returns
// the request variant selected by its type field.
func ParseInteractive(deps Deps, payload []byte) (Any, error) {
	var icb slack.InteractionCallback
	if err := json.Unmarshal(payload, &icb); err != nil {
		return nil, fmt.Errorf("decoding interaction payload: %w", err)
	}

	base := Request{
		Kind:        Kind(icb.Type),
		RawPayload:  payload,
		UserID:      icb.User.ID,
		ResponseURL: icb.ResponseURL,
		TriggerID:   icb.TriggerID,
		Channel:     icb.Channel.ID,
		Client:      deps.Client,
		Log:         deps.Log,
	}

	switch icb.Type {
	case slack.InteractionTypeBlockActions:
		rqst := &BlockActionRequest{
			Request: base,
			Surface: icb.Container,
			Actions: icb.ActionCallback.BlockActions,
			Payload: &icb,
		}
		switch icb.Container.Type {
		case "view":
			rqst.View = FromSlackView(&icb.View)
		case "message":
			rqst.Channel = icb.Container.ChannelID
		default:
			deps.Log.Error().
				Str("container_type", icb.Container.Type).
				RawJSON("payload", payload).
				Msg("Unknown block action container type")
		}
		return rqst, nil

	case slack.InteractionTypeViewSubmission, slack.InteractionTypeViewClosed:
		return &ViewRequest{
			Request: base,
			View:    FromSlackView(&icb.View),
			Payload: &icb,
		}, nil

	case slack.InteractionTypeDialogSubmission:
		state := make(map[string]any)
		if icb.State != "" {
			if err := json.Unmarshal([]byte(icb.State), &state); err != nil {
				return nil, fmt.Errorf("decoding dialog state: %w", err)
			}
		}
		return &DialogRequest{
			Request:    base,
			CallbackID: icb.CallbackID,
			Submission: icb.Submission,
			State:      state,
		}, nil

	case slack.InteractionTypeInteractionMessage:
		return &InteractiveMessageRequest{
			Request:    base,
			CallbackID: icb.CallbackID,
			UserName:   icb.User.Name,
			Actions:    icb.ActionCallback.AttachmentActions,
		}, nil

	case slack.InteractionTypeBlockSuggestion:
		return &OptionSelectRequest{
			Request:  base,
			ActionID: icb.ActionID,
			BlockID:  icb.BlockID,
			Value:    icb.Value,
		}, nil
	}

	deps.Log.Error().
		Str("type", string(icb.Type)).
		RawJSON("payload", payload).
		Msg("Unhandled interaction payload type")

	return nil, &UnhandledRequestError{Type: string(icb.Type), Payload: payload}
}
