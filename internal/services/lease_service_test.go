package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/parkrow/parkrow-api/internal/config"
	"github.com/parkrow/parkrow-api/internal/jobs"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock ApplicationRepository
type mockApplicationRepository struct {
	repository.ApplicationRepository
	mockFindByID         func(ctx context.Context, id uint) (*models.Application, error)
	mockFindSignedLeases func(ctx context.Context) ([]models.Application, error)
	mockUpdate           func(ctx context.Context, app *models.Application) error
	updated              []*models.Application
}

func (m *mockApplicationRepository) FindByID(ctx context.Context, id uint) (*models.Application, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, errors.New("record not found")
}

func (m *mockApplicationRepository) FindSignedLeases(ctx context.Context) ([]models.Application, error) {
	if m.mockFindSignedLeases != nil {
		return m.mockFindSignedLeases(ctx)
	}
	return nil, nil
}

func (m *mockApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	m.updated = append(m.updated, app)
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, app)
	}
	return nil
}

// Mock UserRepository. FindByID fails so the async email path stays cold.
type mockUserRepository struct {
	repository.UserRepository
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return nil, errors.New("record not found")
}

func (m *mockUserRepository) FindAdmins(ctx context.Context) ([]models.User, error) {
	return nil, nil
}

// Mock NotificationRepository
type mockNotificationRepository struct {
	repository.NotificationRepository
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return nil
}

func newTestLeaseService(appRepo *mockApplicationRepository) *LeaseService {
	cfg := &config.Config{LandlordName: "Parkrow Property Management LLC"}
	userRepo := &mockUserRepository{}
	notifSvc := NewNotificationService(&mockNotificationRepository{}, userRepo)

	return &LeaseService{
		applicationRepo: appRepo,
		userRepo:        userRepo,
		notificationSvc: notifSvc,
		emailSvc:        NewEmailService(cfg),
		auditSvc:        NewAuditService(nil),
		worker:          jobs.NewWorker(1),
		cfg:             cfg,
		compose:         ComposeSignedLease,
	}
}

func signInput() SignLeaseInput {
	return SignLeaseInput{
		Consent:    true,
		Method:     models.SignatureMethodType,
		SignedName: "Jane Doe",
		IPAddress:  "203.0.113.9",
		UserAgent:  "Mozilla/5.0 (test)",
	}
}

func TestSignRequiresConsent(t *testing.T) {
	svc := newTestLeaseService(&mockApplicationRepository{})

	input := signInput()
	input.Consent = false
	_, err := svc.Sign(context.Background(), 7, 42, input)
	assert.ErrorIs(t, err, ErrConsentRequired)
}

func TestSignRejectsUnknownMethod(t *testing.T) {
	app := testApplication()
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	input := signInput()
	input.Method = "stamp"
	_, err := svc.Sign(context.Background(), app.ID, 42, input)
	assert.ErrorIs(t, err, ErrUnknownMethod)
	assert.Empty(t, repo.updated)
}

func TestSignRequiresGeneratedLease(t *testing.T) {
	app := testApplication()
	app.LeaseGenerated = false
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	_, err := svc.Sign(context.Background(), app.ID, 42, signInput())
	assert.ErrorIs(t, err, ErrLeaseNotGenerated)
}

func TestSignSuccess(t *testing.T) {
	app := testApplication()
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	signed, err := svc.Sign(context.Background(), app.ID, 42, signInput())
	require.NoError(t, err)

	// The file, signature record, audit record and flags land together
	require.Len(t, repo.updated, 1)
	assert.True(t, signed.LeaseSigned)
	assert.NotNil(t, signed.LeaseSignedAt)
	require.NotNil(t, signed.SignedLeaseFile)
	require.NotNil(t, signed.LeaseSignature)
	require.NotNil(t, signed.LeaseAudit)

	assert.Equal(t, "lease_7.pdf", signed.SignedLeaseFile.Filename)
	assert.Equal(t, "application/pdf", signed.SignedLeaseFile.MimeType)

	raw, err := base64.StdEncoding.DecodeString(signed.SignedLeaseFile.Content)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(raw[:4]))
	assert.Equal(t, len(raw), signed.SignedLeaseFile.ByteSize)

	assert.Equal(t, "Jane Doe", signed.LeaseAudit.SignedName)
	assert.Nil(t, signed.LeaseAudit.CoSignedName)
	assert.Equal(t, uint(42), signed.LeaseAudit.SignedByUserID)
	assert.True(t, signed.LeaseAudit.ConsentGiven)
	assert.Equal(t, "203.0.113.9", signed.LeaseAudit.IPAddress)
	assert.Equal(t, models.LeaseAuditSchemaVersion, signed.LeaseAudit.SchemaVersion)

	// The recorded hash matches the rendered text
	text := RenderLeaseText(app, svc.cfg.LandlordName, app.LeaseGeneratedOn, TermsFromApplication(app))
	assert.Equal(t, LeaseContentHash(text), signed.LeaseAudit.ContentHash)
}

func TestSignComposeFailureLeavesApplicationUntouched(t *testing.T) {
	app := testApplication()
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)
	svc.compose = func(ComposeInput) ([]byte, error) {
		return nil, errors.New("engine exploded")
	}

	_, err := svc.Sign(context.Background(), app.ID, 42, signInput())
	assert.ErrorIs(t, err, ErrDocumentEngine)

	// Nothing persisted, nothing mutated
	assert.Empty(t, repo.updated)
	assert.False(t, app.LeaseSigned)
	assert.Nil(t, app.SignedLeaseFile)
	assert.Nil(t, app.LeaseSignature)
	assert.Nil(t, app.LeaseAudit)
}

func TestPreviewHashMatchesSignedHash(t *testing.T) {
	app := testApplication()
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	preview, err := svc.Preview(context.Background(), app.ID)
	require.NoError(t, err)

	signed, err := svc.Sign(context.Background(), app.ID, 42, signInput())
	require.NoError(t, err)

	assert.Equal(t, preview.ContentHash, signed.LeaseAudit.ContentHash)
}

func TestSignCoApplicant(t *testing.T) {
	app := testApplication()
	coFirst, coLast := "John", "Smith"
	app.CoApplicantFirstName = &coFirst
	app.CoApplicantLastName = &coLast

	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	input := signInput()
	input.CoSignedName = "John Smith"
	signed, err := svc.Sign(context.Background(), app.ID, 42, input)
	require.NoError(t, err)

	require.NotNil(t, signed.LeaseAudit.CoSignedName)
	assert.Equal(t, "John Smith", *signed.LeaseAudit.CoSignedName)
}

func TestGenerateRequiresApprovedApplication(t *testing.T) {
	app := testApplication()
	app.Status = models.ApplicationStatusSubmitted
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	_, err := svc.Generate(context.Background(), app.ID, GenerateLeaseInput{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGenerateStampsDate(t *testing.T) {
	app := testApplication()
	app.LeaseGenerated = false
	app.LeaseGeneratedOn = ""
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	generated, err := svc.Generate(context.Background(), app.ID, GenerateLeaseInput{RentalAmount: 2600})
	require.NoError(t, err)
	assert.True(t, generated.LeaseGenerated)
	assert.Equal(t, TodayCalendarDate(), generated.LeaseGeneratedOn)
	assert.Equal(t, 2600.0, generated.RentalAmount)
}

func TestRemoveClearsEverything(t *testing.T) {
	app := testApplication()
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	signed, err := svc.Sign(context.Background(), app.ID, 42, signInput())
	require.NoError(t, err)
	require.True(t, signed.LeaseSigned)

	removed, err := svc.Remove(context.Background(), app.ID, 1)
	require.NoError(t, err)
	assert.False(t, removed.LeaseSigned)
	assert.Nil(t, removed.LeaseSignedAt)
	assert.Nil(t, removed.SignedLeaseFile)
	assert.Nil(t, removed.LeaseSignature)
	assert.Nil(t, removed.LeaseAudit)
}

func TestVerifyIntegrity(t *testing.T) {
	app := testApplication()
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	_, err := svc.Sign(context.Background(), app.ID, 42, signInput())
	require.NoError(t, err)

	ok, _, _, err := svc.VerifyIntegrity(context.Background(), app.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// A lease-relevant field changed after signing breaks the hash
	app.RentalAmount = 9999
	ok, currentHash, storedHash, err := svc.VerifyIntegrity(context.Background(), app.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, app.LeaseAudit.ContentHash, storedHash)
	assert.NotEqual(t, storedHash, currentHash)
}

func TestDownloadRoundTrip(t *testing.T) {
	app := testApplication()
	repo := &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
	svc := newTestLeaseService(repo)

	_, err := svc.Sign(context.Background(), app.ID, 42, signInput())
	require.NoError(t, err)

	file, data, err := svc.Download(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, "lease_7.pdf", file.Filename)
	assert.Equal(t, "%PDF", string(data[:4]))
}
