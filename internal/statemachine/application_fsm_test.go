package statemachine

import (
	"context"
	"testing"

	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftApplication() *models.Application {
	return &models.Application{ID: 1, Status: models.ApplicationStatusDraft}
}

func TestSubmitFromDraft(t *testing.T) {
	app := draftApplication()
	m := NewApplicationFSM(app)

	require.NoError(t, m.Submit(context.Background()))
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
}

func TestSubmitTwiceFails(t *testing.T) {
	app := draftApplication()
	require.NoError(t, NewApplicationFSM(app).Submit(context.Background()))

	err := NewApplicationFSM(app).Submit(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
}

func TestApproveRequiresSubmitted(t *testing.T) {
	app := draftApplication()
	assert.Error(t, NewApplicationFSM(app).Approve(context.Background()))

	app.Status = models.ApplicationStatusSubmitted
	require.NoError(t, NewApplicationFSM(app).Approve(context.Background()))
	assert.Equal(t, models.ApplicationStatusApproved, app.Status)
}

func TestRejectThenResubmit(t *testing.T) {
	app := draftApplication()
	app.Status = models.ApplicationStatusSubmitted

	require.NoError(t, NewApplicationFSM(app).Reject(context.Background()))
	assert.Equal(t, models.ApplicationStatusRejected, app.Status)

	// A rejected applicant can fix the form and submit again
	require.NoError(t, NewApplicationFSM(app).Submit(context.Background()))
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
}

func TestCancelFromAnyPreLeaseState(t *testing.T) {
	for _, status := range []string{
		models.ApplicationStatusDraft,
		models.ApplicationStatusSubmitted,
		models.ApplicationStatusApproved,
		models.ApplicationStatusRejected,
	} {
		app := &models.Application{ID: 1, Status: status}
		require.NoError(t, NewApplicationFSM(app).Cancel(context.Background()), "from %s", status)
		assert.Equal(t, models.ApplicationStatusCancelled, app.Status)
	}
}

func TestCancelBlockedBySignedLease(t *testing.T) {
	app := &models.Application{ID: 1, Status: models.ApplicationStatusApproved, LeaseSigned: true}

	err := NewApplicationFSM(app).Cancel(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.ApplicationStatusApproved, app.Status)
}

func TestCancelledIsTerminal(t *testing.T) {
	app := draftApplication()
	require.NoError(t, NewApplicationFSM(app).Cancel(context.Background()))

	assert.Error(t, NewApplicationFSM(app).Submit(context.Background()))
	assert.Error(t, NewApplicationFSM(app).Cancel(context.Background()))
	assert.Equal(t, models.ApplicationStatusCancelled, app.Status)
}

func TestCan(t *testing.T) {
	app := draftApplication()
	m := NewApplicationFSM(app)

	assert.True(t, m.Can("submit"))
	assert.False(t, m.Can("approve"))
	assert.Equal(t, models.ApplicationStatusDraft, m.Current())
}
