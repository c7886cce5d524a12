package request

import (
	"encoding/json"
	"fmt"

	"github.com/slack-go/slack"
)

// View models a modal surface across its open/update/push/close lifecycle.
// A freshly constructed view has no ViewID/Hash; both are populated once the
// view has been opened (either from the open call's response or from an
// inbound view_* payload).
type View struct {
	Type          string
	Title         string
	Close         string // empty means the close button is omitted
	Submit        string // empty means the submit button is omitted
	CallbackID    string
	ExternalID    string
	ClearOnClose  bool
	NotifyOnClose bool

	// Metadata is round-tripped through the wire as a JSON-encoded string
	// in private_metadata. RawMetadata keeps inbound metadata that did not
	// decode as JSON.
	Metadata    map[string]any
	RawMetadata string

	Blocks slack.Blocks

	// populated once the view is open
	ViewID      string
	Hash        string
	StateValues map[string]map[string]slack.BlockAction
}

// NewView returns an empty modal view.
func NewView() *View {
	return &View{Type: string(slack.VTModal)}
}

// FromSlackView hydrates a View from a decoded wire view, as carried in
// view_submission / view_closed / in-view block_actions payloads and in Web
// API view responses.
func FromSlackView(sv *slack.View) *View {
	v := &View{
		Type:          string(sv.Type),
		CallbackID:    sv.CallbackID,
		ExternalID:    sv.ExternalID,
		ClearOnClose:  sv.ClearOnClose,
		NotifyOnClose: sv.NotifyOnClose,
		Blocks:        sv.Blocks,
		ViewID:        sv.ID,
		Hash:          sv.Hash,
	}

	if sv.Title != nil {
		v.Title = sv.Title.Text
	}
	if sv.Close != nil {
		v.Close = sv.Close.Text
	}
	if sv.Submit != nil {
		v.Submit = sv.Submit.Text
	}

	if sv.PrivateMetadata != "" {
		meta := make(map[string]any)
		if err := json.Unmarshal([]byte(sv.PrivateMetadata), &meta); err == nil {
			v.Metadata = meta
		} else {
			v.RawMetadata = sv.PrivateMetadata
		}
	}

	if sv.State != nil {
		v.StateValues = sv.State.Values
	}

	return v
}

// ModalView renders the view as the wire shape used by views.open,
// views.update, views.push and the direct response_action bodies.
func (v *View) ModalView() *slack.ModalViewRequest {
	mv := &slack.ModalViewRequest{
		Type:          slack.VTModal,
		Title:         slack.NewTextBlockObject(slack.PlainTextType, v.Title, false, false),
		Blocks:        v.Blocks,
		CallbackID:    v.CallbackID,
		ExternalID:    v.ExternalID,
		ClearOnClose:  v.ClearOnClose,
		NotifyOnClose: v.NotifyOnClose,
	}

	if v.Close != "" {
		mv.Close = slack.NewTextBlockObject(slack.PlainTextType, v.Close, false, false)
	}
	if v.Submit != "" {
		mv.Submit = slack.NewTextBlockObject(slack.PlainTextType, v.Submit, false, false)
	}

	switch {
	case v.Metadata != nil:
		// metadata crosses the wire as a JSON string
		encoded, _ := json.Marshal(v.Metadata)
		mv.PrivateMetadata = string(encoded)
	case v.RawMetadata != "":
		mv.PrivateMetadata = v.RawMetadata
	}

	return mv
}

// AddBlock appends a block to the view.
func (v *View) AddBlock(block slack.Block) {
	v.Blocks.BlockSet = append(v.Blocks.BlockSet, block)
}

// SetBlock replaces the block at the given index.
func (v *View) SetBlock(i int, block slack.Block) {
	v.Blocks.BlockSet[i] = block
}

// InputValues flattens the view state into a mapping of each input element's
// action id to its extracted value, per the element-type extraction table.
func (v *View) InputValues() (map[string]any, error) {
	values := make(map[string]any)
	for _, blockState := range v.StateValues {
		for actionID, element := range blockState {
			val, err := InputValue(element)
			if err != nil {
				return nil, err
			}
			values[actionID] = val
		}
	}
	return values, nil
}

// InputValue extracts the user-supplied value from one view-state entry.
// Single-choice elements yield a string; multi-choice elements yield the
// selected values in order.
func InputValue(element slack.BlockAction) (any, error) {
	switch string(element.Type) {
	case "plain_text_input":
		return element.Value, nil

	case "datepicker":
		return element.SelectedDate, nil

	case "static_select", "external_select", "radio_buttons":
		return element.SelectedOption.Value, nil

	case "users_select":
		return element.SelectedUser, nil

	case "conversations_select":
		return element.SelectedConversation, nil

	case "channels_select":
		return element.SelectedChannel, nil

	case "multi_static_select", "multi_external_select", "checkboxes":
		return optionValues(element.SelectedOptions), nil

	case "multi_users_select":
		return element.SelectedUsers, nil

	case "multi_conversations_select":
		return element.SelectedConversations, nil

	case "multi_channels_select":
		return element.SelectedChannels, nil
	}

	return nil, fmt.Errorf("unhandled view input element type: %q", element.Type)
}
