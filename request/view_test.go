package request

import (
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

func TestFromSlackView_DecodesMetadata(t *testing.T) {
	v := FromSlackView(&slack.View{
		ID:              "V1",
		Type:            slack.VTModal,
		CallbackID:      "cb1",
		PrivateMetadata: `{"step":"two"}`,
		Hash:            "h1",
	})

	assert.Equal(t, map[string]any{"step": "two"}, v.Metadata)
	assert.Equal(t, "", v.RawMetadata)
}

func TestFromSlackView_KeepsOpaqueMetadata(t *testing.T) {
	v := FromSlackView(&slack.View{
		ID:              "V1",
		PrivateMetadata: "not json",
	})

	assert.Nil(t, v.Metadata)
	assert.Equal(t, "not json", v.RawMetadata)
}

func TestNewView_IsModalType(t *testing.T) {
	v := NewView()

	assert.Equal(t, string(slack.VTModal), v.Type)
	assert.Equal(t, slack.VTModal, v.ModalView().Type)
}

func TestModalView_OmitsEmptyButtons(t *testing.T) {
	v := NewView()
	v.Title = "Example"

	mv := v.ModalView()
	assert.Nil(t, mv.Close)
	assert.Nil(t, mv.Submit)
	assert.Equal(t, "Example", mv.Title.Text)
}

func TestModalView_MetadataRoundTrip(t *testing.T) {
	v := NewView()
	v.Title = "Example"
	v.CallbackID = "cb1"
	v.Metadata = map[string]any{"step": "two"}

	mv := v.ModalView()
	assert.JSONEq(t, `{"step":"two"}`, mv.PrivateMetadata)

	back := FromSlackView(&slack.View{
		Type:            slack.VTModal,
		CallbackID:      mv.CallbackID,
		PrivateMetadata: mv.PrivateMetadata,
	})
	assert.Equal(t, v.Metadata, back.Metadata)
}

func TestInputValues_ExtractionByElementType(t *testing.T) {
	v := NewView()
	v.StateValues = map[string]map[string]slack.BlockAction{
		"b1": {
			"name": {Type: "plain_text_input", Value: "Jeremy"},
			"date": {Type: "datepicker", SelectedDate: "2023-04-01"},
		},
		"b2": {
			"toppings": {
				Type: "checkboxes",
				SelectedOptions: []slack.OptionBlockObject{
					{Value: "cheese"}, {Value: "mushrooms"},
				},
			},
		},
	}

	inputs, err := v.InputValues()
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":     "Jeremy",
		"date":     "2023-04-01",
		"toppings": []string{"cheese", "mushrooms"},
	}, inputs)
}

func TestInputValues_UnknownElementType(t *testing.T) {
	v := NewView()
	v.StateValues = map[string]map[string]slack.BlockAction{
		"b1": {"x": {Type: "overflow_9000"}},
	}

	_, err := v.InputValues()
	assert.Error(t, err)
}
