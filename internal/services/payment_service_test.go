package services

import (
	"context"
	"testing"

	"github.com/parkrow/parkrow-api/internal/config"
	"github.com/parkrow/parkrow-api/internal/jobs"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mock PaymentRepository
type mockPaymentRepository struct {
	repository.PaymentRepository
	mockFindByReference   func(ctx context.Context, reference string) (*models.Payment, error)
	mockFindByApplication func(ctx context.Context, applicationID uint) ([]models.Payment, error)
	mockCreate            func(ctx context.Context, payment *models.Payment) error
	created               []*models.Payment
	updated               []*models.Payment
}

func (m *mockPaymentRepository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	if m.mockFindByReference != nil {
		return m.mockFindByReference(ctx, reference)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepository) FindByApplication(ctx context.Context, applicationID uint) ([]models.Payment, error) {
	if m.mockFindByApplication != nil {
		return m.mockFindByApplication(ctx, applicationID)
	}
	return nil, nil
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if m.mockCreate != nil {
		if err := m.mockCreate(ctx, payment); err != nil {
			return err
		}
	}
	m.created = append(m.created, payment)
	return nil
}

func (m *mockPaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	m.updated = append(m.updated, payment)
	return nil
}

func newTestPaymentService(paymentRepo *mockPaymentRepository, appRepo *mockApplicationRepository) *PaymentService {
	cfg := &config.Config{LandlordName: "Parkrow Property Management LLC"}
	userRepo := &mockUserRepository{}
	notifSvc := NewNotificationService(&mockNotificationRepository{}, userRepo)

	return &PaymentService{
		paymentRepo:     paymentRepo,
		applicationRepo: appRepo,
		userRepo:        userRepo,
		notificationSvc: notifSvc,
		emailSvc:        NewEmailService(cfg),
		auditSvc:        NewAuditService(nil),
		worker:          jobs.NewWorker(1),
	}
}

func findByIDReturning(app *models.Application) *mockApplicationRepository {
	return &mockApplicationRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) { return app, nil },
	}
}

func TestRecordCheck(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	svc := newTestPaymentService(paymentRepo, findByIDReturning(testApplication()))

	payment, err := svc.RecordCheck(context.Background(), 1, RecordCheckInput{
		ApplicationID: 7,
		PaymentType:   models.PaymentTypeDeposit,
		Amount:        500,
		CheckNumber:   "1042",
	})
	require.NoError(t, err)

	assert.Equal(t, "check-1042", payment.Reference)
	assert.Equal(t, models.PaymentMethodCheck, payment.Method)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.NotNil(t, payment.PaidAt)
	require.Len(t, paymentRepo.created, 1)
}

func TestRecordCheckDuplicateReference(t *testing.T) {
	paymentRepo := &mockPaymentRepository{
		mockCreate: func(ctx context.Context, payment *models.Payment) error {
			return repository.ErrDuplicateKey
		},
	}
	svc := newTestPaymentService(paymentRepo, findByIDReturning(testApplication()))

	_, err := svc.RecordCheck(context.Background(), 1, RecordCheckInput{
		ApplicationID: 7,
		PaymentType:   models.PaymentTypeDeposit,
		Amount:        500,
		CheckNumber:   "1042",
	})
	assert.ErrorIs(t, err, ErrDuplicateReference)
}

func TestApplyProcessorEventCreatesPayment(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	svc := newTestPaymentService(paymentRepo, findByIDReturning(testApplication()))

	payment, err := svc.ApplyProcessorEvent(context.Background(), ProcessorEvent{
		Reference:     "cs_test_abc123",
		ApplicationID: 7,
		PaymentType:   models.PaymentTypeApplicationFee,
		Amount:        50,
		Status:        "succeeded",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.Equal(t, models.PaymentMethodCard, payment.Method)
	assert.NotNil(t, payment.PaidAt)
	require.Len(t, paymentRepo.created, 1)
}

func TestApplyProcessorEventNeverDowngradesPaid(t *testing.T) {
	existing := &models.Payment{
		ID:            3,
		ApplicationID: 7,
		Reference:     "cs_test_abc123",
		Status:        models.PaymentStatusPaid,
	}
	paymentRepo := &mockPaymentRepository{
		mockFindByReference: func(ctx context.Context, reference string) (*models.Payment, error) {
			return existing, nil
		},
	}
	svc := newTestPaymentService(paymentRepo, findByIDReturning(testApplication()))

	// A late pending event must not unsettle the payment
	payment, err := svc.ApplyProcessorEvent(context.Background(), ProcessorEvent{
		Reference:     "cs_test_abc123",
		ApplicationID: 7,
		Status:        "pending",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.Empty(t, paymentRepo.updated)
}

func TestApplyProcessorEventUnknownStatus(t *testing.T) {
	svc := newTestPaymentService(&mockPaymentRepository{}, findByIDReturning(testApplication()))

	_, err := svc.ApplyProcessorEvent(context.Background(), ProcessorEvent{
		Reference:     "cs_test_abc123",
		ApplicationID: 7,
		Status:        "mystery",
	})
	assert.Error(t, err)
}

func TestSummaryAppliesDepositDefault(t *testing.T) {
	app := testApplication() // no deposit on file
	paymentRepo := &mockPaymentRepository{
		mockFindByApplication: func(ctx context.Context, applicationID uint) ([]models.Payment, error) {
			return []models.Payment{
				{PaymentType: models.PaymentTypeDeposit, Status: models.PaymentStatusPaid, Amount: 500},
				{PaymentType: models.PaymentTypeRent, Status: models.PaymentStatusPending, Amount: 2500},
			}, nil
		},
	}
	svc := newTestPaymentService(paymentRepo, findByIDReturning(app))

	summary, err := svc.Summary(context.Background(), app.ID)
	require.NoError(t, err)

	assert.Equal(t, 500.0, summary.TotalPaid)
	assert.Equal(t, 2500.0, summary.TotalPending)
	assert.Equal(t, 0.0, summary.DepositDue)
	assert.Equal(t, 2500.0, summary.RentDue)
	assert.Equal(t, 2, summary.Payments)
}
