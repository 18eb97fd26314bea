package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/parkrow/parkrow-api/internal/models"
)

// ApplicationFSM wraps a rental application with its lifecycle state machine
type ApplicationFSM struct {
	app *models.Application
	fsm *fsm.FSM
}

// NewApplicationFSM creates a new application state machine
func NewApplicationFSM(app *models.Application) *ApplicationFSM {
	a := &ApplicationFSM{
		app: app,
	}

	a.fsm = fsm.NewFSM(
		app.Status,
		fsm.Events{
			// draft/rejected → submitted
			{Name: "submit", Src: []string{models.ApplicationStatusDraft, models.ApplicationStatusRejected}, Dst: models.ApplicationStatusSubmitted},

			// submitted → approved
			{Name: "approve", Src: []string{models.ApplicationStatusSubmitted}, Dst: models.ApplicationStatusApproved},

			// submitted → rejected
			{Name: "reject", Src: []string{models.ApplicationStatusSubmitted}, Dst: models.ApplicationStatusRejected},

			// anything not yet leased → cancelled
			{Name: "cancel", Src: []string{models.ApplicationStatusDraft, models.ApplicationStatusSubmitted, models.ApplicationStatusApproved, models.ApplicationStatusRejected}, Dst: models.ApplicationStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return a
}

// Submit transitions the application to submitted state
func (a *ApplicationFSM) Submit(ctx context.Context) error {
	if !a.app.MaySubmit() {
		return fmt.Errorf("application cannot be submitted in current state: %s", a.app.Status)
	}

	if err := a.fsm.Event(ctx, "submit"); err != nil {
		return fmt.Errorf("failed to submit application: %w", err)
	}

	a.app.Status = a.fsm.Current()
	return nil
}

// Approve transitions the application to approved state
func (a *ApplicationFSM) Approve(ctx context.Context) error {
	if !a.app.MayApprove() {
		return fmt.Errorf("application cannot be approved in current state: %s", a.app.Status)
	}

	if err := a.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve application: %w", err)
	}

	a.app.Status = a.fsm.Current()
	return nil
}

// Reject transitions the application to rejected state
func (a *ApplicationFSM) Reject(ctx context.Context) error {
	if !a.app.MayReject() {
		return fmt.Errorf("application cannot be rejected in current state: %s", a.app.Status)
	}

	if err := a.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject application: %w", err)
	}

	a.app.Status = a.fsm.Current()
	return nil
}

// Cancel transitions the application to cancelled state. Applications with a
// signed lease can no longer be cancelled through the lifecycle.
func (a *ApplicationFSM) Cancel(ctx context.Context) error {
	if !a.app.MayCancel() {
		return fmt.Errorf("application cannot be cancelled in current state: %s", a.app.Status)
	}

	if err := a.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel application: %w", err)
	}

	a.app.Status = a.fsm.Current()
	return nil
}

// Current returns the current state
func (a *ApplicationFSM) Current() string {
	return a.fsm.Current()
}

// Can checks if a transition is possible
func (a *ApplicationFSM) Can(event string) bool {
	return a.fsm.Can(event)
}
