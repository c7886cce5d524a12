package request

import (
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

func TestBlockActionEvent_Button(t *testing.T) {
	ev, err := BlockActionEvent(&slack.BlockAction{
		Type:     "button",
		ActionID: "approve",
		Value:    "yes",
	})
	assert.NoError(t, err)
	assert.Equal(t, "yes", ev.Str())
	assert.Equal(t, "approve", ev.ID)
}

func TestBlockActionEvent_ButtonWithoutValue(t *testing.T) {
	ev, err := BlockActionEvent(&slack.BlockAction{
		Type:     "button",
		ActionID: "approve",
	})
	assert.NoError(t, err)
	assert.Equal(t, "approve", ev.Str(), "a value-less button falls back to its action id")
}

func TestBlockActionEvent_StaticSelect(t *testing.T) {
	act := &slack.BlockAction{Type: "static_select", ActionID: "pick"}
	act.SelectedOption.Value = "blue"

	ev, err := BlockActionEvent(act)
	assert.NoError(t, err)
	assert.Equal(t, "blue", ev.Str())
}

func TestBlockActionEvent_Checkboxes(t *testing.T) {
	ev, err := BlockActionEvent(&slack.BlockAction{
		Type:     "checkboxes",
		ActionID: "toppings",
		SelectedOptions: []slack.OptionBlockObject{
			{Value: "cheese"},
			{Value: "peppers"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"cheese", "peppers"}, ev.List())
	assert.Equal(t, "", ev.Str(), "multi-value events have no single string form")
}

func TestBlockActionEvent_Datepicker(t *testing.T) {
	ev, err := BlockActionEvent(&slack.BlockAction{
		Type:         "datepicker",
		ActionID:     "date",
		SelectedDate: "2023-04-01",
	})
	assert.NoError(t, err)
	assert.Equal(t, "2023-04-01", ev.Str())
}

func TestBlockActionEvent_PlainTextInput(t *testing.T) {
	ev, err := BlockActionEvent(&slack.BlockAction{
		Type:     "plain_text_input",
		ActionID: "name",
		Value:    "Jeremy",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Jeremy", ev.Str())
}

func TestBlockActionEvent_UnknownType(t *testing.T) {
	_, err := BlockActionEvent(&slack.BlockAction{
		Type:     "overflow_9000",
		ActionID: "x",
	})
	assert.Error(t, err)
}

func TestAttachmentActionEvent_Select(t *testing.T) {
	ev, err := AttachmentActionEvent(&slack.AttachmentAction{
		Name: "demos",
		Type: "select",
		SelectedOptions: []slack.AttachmentActionOption{
			{Value: "demo block"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, "demo block", ev.Str())
}

func TestAttachmentActionEvent_EmptySelect(t *testing.T) {
	_, err := AttachmentActionEvent(&slack.AttachmentAction{
		Name: "demos",
		Type: "select",
	})
	assert.Error(t, err)
}
