// Package modal tracks one Slack modal view across its open, update, push,
// and close transitions, re-registering the routing for the next submission
// on every transition.
package modal

import (
	"context"
	"errors"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/jeremyschulman/slackapptk/registry"
	"github.com/jeremyschulman/slackapptk/request"
)

// Modal binds a view to the originating request and to the listener tables
// that route its submissions. Exactly one of OnSubmit / OnSubmitInputs may
// be set; whichever is set is (re-)registered under the view's callback id
// before every transition, so the next submission is already routable when
// Slack renders the surface.
type Modal struct {
	Rqst request.Any
	View *request.View

	// Detached marks a modal operated outside the original request cycle,
	// e.g. from a background goroutine. Detached updates go through the Web
	// API and omit the concurrency hash, since the hash captured when the
	// task was scheduled is not guaranteed fresh.
	Detached bool

	OnSubmit       registry.ViewFunc
	OnSubmitInputs registry.ViewInputsFunc
	NotifyOnClose  registry.ViewFunc

	ic *registry.IC
}

// New binds a modal to the originating request. When the request itself
// carries a view (a view_submission, or a block action inside a view), that
// view becomes the modal's basis; otherwise the modal starts a fresh one.
func New(rqst request.Any, ic *registry.IC) *Modal {
	m := &Modal{Rqst: rqst, ic: ic}

	switch typed := rqst.(type) {
	case *request.ViewRequest:
		m.View = typed.View
	case *request.BlockActionRequest:
		if typed.View != nil {
			m.View = typed.View
		}
	}
	if m.View == nil {
		m.View = request.NewView()
	}
	return m
}

// WithView replaces the modal's view basis.
func (m *Modal) WithView(view *request.View) *Modal {
	m.View = view
	return m
}

func (m *Modal) register() {
	switch {
	case m.OnSubmitInputs != nil:
		m.ic.OnViewSubmissionInputs(m.View.CallbackID, m.OnSubmitInputs)
	case m.OnSubmit != nil:
		m.ic.OnViewSubmission(m.View.CallbackID, m.OnSubmit)
	}

	if m.NotifyOnClose != nil {
		m.View.NotifyOnClose = true
		m.ic.OnViewClosed(m.View.CallbackID, m.NotifyOnClose)
	}
}

// Open opens the modal. It needs the originating request's trigger id,
// which Slack honors only within a short window after the user interaction;
// an expired trigger id surfaces as a remote API error.
func (m *Modal) Open(ctx context.Context) error {
	m.register()

	base := m.Rqst.Base()
	if base.TriggerID == "" {
		return errors.New("opening a view requires a trigger id")
	}

	resp, err := base.Client.OpenViewContext(ctx, base.TriggerID, *m.View.ModalView())
	if err != nil {
		return fmt.Errorf("views.open: %w", err)
	}

	m.View.ViewID = resp.View.ID
	m.View.Hash = resp.View.Hash
	return nil
}

// Update mutates the open view. Invoked while handling that view's own
// submission, the update is expressed as a direct response body; in any
// other context it is a views.update API call carrying the view id and,
// unless detached, the optimistic-concurrency hash. A stale hash fails the
// remote call and is surfaced, not swallowed.
func (m *Modal) Update(ctx context.Context) (any, error) {
	m.register()

	base := m.Rqst.Base()
	if base.Kind == request.KindViewSubmission && !m.Detached {
		return slack.NewUpdateViewSubmissionResponse(m.View.ModalView()), nil
	}

	if m.View.ViewID == "" {
		return nil, errors.New("attempting to update a view that was never opened")
	}

	hash := m.View.Hash
	if m.Detached {
		hash = ""
	}

	resp, err := base.Client.UpdateViewContext(ctx, *m.View.ModalView(), m.View.ExternalID, hash, m.View.ViewID)
	if err != nil {
		return nil, fmt.Errorf("views.update: %w", err)
	}

	m.View.Hash = resp.View.Hash
	return nil, nil
}

// Push stacks a new view on top of the current one; the same dual-path wire
// logic as Update applies.
func (m *Modal) Push(ctx context.Context) (any, error) {
	m.register()

	base := m.Rqst.Base()
	if base.Kind == request.KindViewSubmission && !m.Detached {
		return slack.NewPushViewSubmissionResponse(m.View.ModalView()), nil
	}

	if base.TriggerID == "" {
		return nil, errors.New("pushing a view requires a trigger id")
	}

	resp, err := base.Client.PushViewContext(ctx, base.TriggerID, *m.View.ModalView())
	if err != nil {
		return nil, fmt.Errorf("views.push: %w", err)
	}

	m.View.ViewID = resp.View.ID
	m.View.Hash = resp.View.Hash
	return nil, nil
}

// ClearResponse is the direct submission response that closes the whole
// view stack.
func ClearResponse() *slack.ViewSubmissionResponse {
	return slack.NewClearViewSubmissionResponse()
}

// ErrorsResponse is the direct submission response that flags input
// validation errors, keyed by block id.
func ErrorsResponse(errs map[string]string) *slack.ViewSubmissionResponse {
	return slack.NewErrorsViewSubmissionResponse(errs)
}
