package registry

import "github.com/jeremyschulman/slackapptk/request"

// Handler signatures come in two arities per interaction category. Which one
// a callback receives is fixed at registration time: the bare form gets only
// the request, and the dispatcher never decodes the user action for it; the
// data form additionally receives the decoded action or input values.

// BlockActionFunc handles a block action without the decoded action.
type BlockActionFunc func(rqst *request.BlockActionRequest) (any, error)

// BlockActionDataFunc handles a block action with the decoded ActionEvent.
type BlockActionDataFunc func(rqst *request.BlockActionRequest, action request.ActionEvent) (any, error)

// BlockActionEntry holds whichever form was registered.
type BlockActionEntry struct {
	Fn     BlockActionFunc
	FnData BlockActionDataFunc
}

// ViewFunc handles a view submission or close without the input values.
type ViewFunc func(rqst *request.ViewRequest) (any, error)

// ViewInputsFunc additionally receives the extracted input values, keyed by
// each input element's action id.
type ViewInputsFunc func(rqst *request.ViewRequest, inputs map[string]any) (any, error)

// ViewEntry holds whichever form was registered.
type ViewEntry struct {
	Fn       ViewFunc
	FnInputs ViewInputsFunc
}

// DialogFunc handles a dialog submission; the submission values are always
// passed along.
type DialogFunc func(rqst *request.DialogRequest, submission map[string]string) (any, error)

// IMsgFunc handles an outmoded interactive-message attachment action.
type IMsgFunc func(rqst *request.InteractiveMessageRequest, action request.ActionEvent) (any, error)

// SelectFunc populates an external select from the request alone; its result
// must be a uniform slice of options or of option groups.
type SelectFunc func(rqst *request.OptionSelectRequest) (any, error)

// SelectDataFunc populates an external select from the decoded action; its
// result must be a uniform slice of options or of option groups.
type SelectDataFunc func(rqst *request.OptionSelectRequest, action request.ActionEvent) (any, error)

// SelectEntry holds whichever form was registered.
type SelectEntry struct {
	Fn     SelectFunc
	FnData SelectDataFunc
}

// EventFunc handles an Events API callback, keyed by event type.
type EventFunc func(rqst *request.EventRequest) error

// IC is the set of listener tables for the interactive payload categories,
// owned by the app instance and injected wherever dispatch or registration
// occurs.
type IC struct {
	BlockAction    *Table[BlockActionEntry]
	Dialog         *Table[DialogFunc]
	Select         *Table[SelectEntry]
	IMsg           *Table[IMsgFunc]
	ViewSubmission *Table[ViewEntry]
	ViewClosed     *Table[ViewEntry]
}

// NewIC returns empty listener tables.
func NewIC() *IC {
	return &IC{
		BlockAction:    NewTable[BlockActionEntry]("block_action"),
		Dialog:         NewTable[DialogFunc]("dialog"),
		Select:         NewTable[SelectEntry]("select"),
		IMsg:           NewTable[IMsgFunc]("imsg"),
		ViewSubmission: NewTable[ViewEntry]("view_submission"),
		ViewClosed:     NewTable[ViewEntry]("view_closed"),
	}
}

// OnBlockAction routes the block-action event id to a request-only handler.
func (ic *IC) OnBlockAction(eventID string, fn BlockActionFunc) {
	ic.BlockAction.On(eventID, BlockActionEntry{Fn: fn})
}

// OnBlockActionEvent routes the block-action event id to a handler that also
// receives the decoded action.
func (ic *IC) OnBlockActionEvent(eventID string, fn BlockActionDataFunc) {
	ic.BlockAction.On(eventID, BlockActionEntry{FnData: fn})
}

// OnViewSubmission routes a view callback id to a request-only handler.
func (ic *IC) OnViewSubmission(eventID string, fn ViewFunc) {
	ic.ViewSubmission.On(eventID, ViewEntry{Fn: fn})
}

// OnViewSubmissionInputs routes a view callback id to a handler that also
// receives the extracted input values.
func (ic *IC) OnViewSubmissionInputs(eventID string, fn ViewInputsFunc) {
	ic.ViewSubmission.On(eventID, ViewEntry{FnInputs: fn})
}

// OnViewClosed routes a view-closed callback id to a request-only handler.
func (ic *IC) OnViewClosed(eventID string, fn ViewFunc) {
	ic.ViewClosed.On(eventID, ViewEntry{Fn: fn})
}

// OnDialog routes a dialog callback id to its handler.
func (ic *IC) OnDialog(eventID string, fn DialogFunc) {
	ic.Dialog.On(eventID, fn)
}

// OnIMsg routes an attachment callback id to its handler.
func (ic *IC) OnIMsg(eventID string, fn IMsgFunc) {
	ic.IMsg.On(eventID, fn)
}

// OnSelect routes an external-select event id to a request-only handler.
func (ic *IC) OnSelect(eventID string, fn SelectFunc) {
	ic.Select.On(eventID, SelectEntry{Fn: fn})
}

// OnSelectValue routes an external-select event id to a handler that also
// receives the decoded action.
func (ic *IC) OnSelectValue(eventID string, fn SelectDataFunc) {
	ic.Select.On(eventID, SelectEntry{FnData: fn})
}
