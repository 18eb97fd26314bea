package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/parkrow/parkrow-api/internal/jobs"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/parkrow/parkrow-api/internal/storage"
	"github.com/parkrow/parkrow-api/pkg/logger"
	"gorm.io/gorm"
)

// RecordCheckInput is a manually recorded check payment
type RecordCheckInput struct {
	ApplicationID uint    `json:"application_id" binding:"required"`
	PaymentType   string  `json:"payment_type" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	CheckNumber   string  `json:"check_number" binding:"required"`
	Memo          string  `json:"memo"`
}

// ProcessorEvent is the payload the card processor posts to the webhook. The
// processor hosts checkout; this side only keeps the books.
type ProcessorEvent struct {
	Reference     string  `json:"reference" binding:"required"`
	ApplicationID uint    `json:"application_id" binding:"required"`
	PaymentType   string  `json:"payment_type"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status" binding:"required"`
	OccurredAt    string  `json:"occurred_at"`
}

// PaymentSummary reconciles what an application has paid against what is due
type PaymentSummary struct {
	ApplicationID uint    `json:"application_id"`
	TotalPaid     float64 `json:"total_paid"`
	TotalPending  float64 `json:"total_pending"`
	DepositDue    float64 `json:"deposit_due"`
	RentDue       float64 `json:"rent_due"`
	Payments      int     `json:"payments"`
}

// PaymentService records and reconciles payments against applications
type PaymentService struct {
	paymentRepo     repository.PaymentRepository
	applicationRepo repository.ApplicationRepository
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	storage         *storage.LocalStorage
	worker          *jobs.Worker
}

// NewPaymentService creates the payment service
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	applicationRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	storage *storage.LocalStorage,
	worker *jobs.Worker,
) *PaymentService {
	return &PaymentService{
		paymentRepo:     paymentRepo,
		applicationRepo: applicationRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		storage:         storage,
		worker:          worker,
	}
}

func (s *PaymentService) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return payment, nil
}

func (s *PaymentService) FindByApplication(ctx context.Context, applicationID uint) ([]models.Payment, error) {
	return s.paymentRepo.FindByApplication(ctx, applicationID)
}

func (s *PaymentService) List(ctx context.Context, query *repository.ListQuery) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(ctx, query)
}

// RecordCheck records a check received by hand. The check number doubles as
// the payment reference, so the same check cannot be entered twice.
func (s *PaymentService) RecordCheck(ctx context.Context, recordedByID uint, input RecordCheckInput) (*models.Payment, error) {
	app, err := s.applicationRepo.FindByID(ctx, input.ApplicationID)
	if err != nil {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	var memo *string
	if input.Memo != "" {
		memo = &input.Memo
	}
	payment := &models.Payment{
		ApplicationID: app.ID,
		PaymentType:   input.PaymentType,
		Method:        models.PaymentMethodCheck,
		Status:        models.PaymentStatusPaid,
		Amount:        input.Amount,
		Reference:     fmt.Sprintf("check-%s", input.CheckNumber),
		Memo:          memo,
		PaidAt:        &now,
		RecordedByID:  &recordedByID,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	s.notifyPaymentSettled(app, payment, recordedByID)
	return payment, nil
}

// ApplyProcessorEvent upserts a payment record from a card processor webhook
// keyed on the processor's reference. Events arrive at least once and out of
// order; a settled payment is never downgraded by a late pending event.
func (s *PaymentService) ApplyProcessorEvent(ctx context.Context, event ProcessorEvent) (*models.Payment, error) {
	status, ok := processorStatus(event.Status)
	if !ok {
		return nil, fmt.Errorf("unrecognized processor status %q", event.Status)
	}

	payment, err := s.paymentRepo.FindByReference(ctx, event.Reference)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		payment = &models.Payment{
			ApplicationID: event.ApplicationID,
			PaymentType:   event.PaymentType,
			Method:        models.PaymentMethodCard,
			Status:        status,
			Amount:        event.Amount,
			Reference:     event.Reference,
		}
		if status == models.PaymentStatusPaid {
			now := time.Now().UTC()
			payment.PaidAt = &now
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		if payment.IsPaid() && status == models.PaymentStatusPending {
			return payment, nil
		}
		payment.Status = status
		if status == models.PaymentStatusPaid && payment.PaidAt == nil {
			now := time.Now().UTC()
			payment.PaidAt = &now
		}
		if err := s.paymentRepo.Update(ctx, payment); err != nil {
			return nil, err
		}
	}

	if status == models.PaymentStatusPaid {
		if app, err := s.applicationRepo.FindByID(ctx, payment.ApplicationID); err == nil {
			s.notifyPaymentSettled(app, payment, 0)
		}
	}
	if status == models.PaymentStatusFailed {
		s.worker.EnqueueAsync(func(jobCtx context.Context) error {
			return s.notificationSvc.NotifyAdmins(jobCtx,
				"Payment failed",
				fmt.Sprintf("Card payment %s for application #%d failed.", payment.Reference, payment.ApplicationID),
				models.NotificationTypePaymentFailed)
		})
	}
	return payment, nil
}

// AttachReceipt stores an uploaded receipt image for a payment
func (s *PaymentService) AttachReceipt(ctx context.Context, paymentID uint, file *multipart.FileHeader) (*models.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, ErrNotFound
	}

	path, err := s.storage.SaveReceipt(file, payment.ID)
	if err != nil {
		return nil, err
	}

	payment.ReceiptPath = &path
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Summary reconciles an application's payments against the amounts its lease
// terms call for.
func (s *PaymentService) Summary(ctx context.Context, applicationID uint) (*PaymentSummary, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, ErrNotFound
	}

	payments, err := s.paymentRepo.FindByApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	summary := &PaymentSummary{ApplicationID: app.ID, Payments: len(payments)}
	depositPaid, rentPaid := 0.0, 0.0
	for _, p := range payments {
		switch p.Status {
		case models.PaymentStatusPaid:
			summary.TotalPaid += p.Amount
			switch p.PaymentType {
			case models.PaymentTypeDeposit:
				depositPaid += p.Amount
			case models.PaymentTypeRent:
				rentPaid += p.Amount
			}
		case models.PaymentStatusPending:
			summary.TotalPending += p.Amount
		}
	}

	deposit := app.DepositAmount
	if deposit <= 0 {
		deposit = DefaultDepositAmount
	}
	if due := deposit - depositPaid; due > 0 {
		summary.DepositDue = due
	}
	if due := app.RentalAmount - rentPaid; due > 0 {
		summary.RentDue = due
	}
	return summary, nil
}

// SendMoveInReminders nags applicants whose move-in balance is still pending.
// Runs on the daily schedule.
func (s *PaymentService) SendMoveInReminders(ctx context.Context) error {
	payments, _, err := s.paymentRepo.List(ctx, &repository.ListQuery{
		Filters: map[string]string{"status": models.PaymentStatusPending},
	})
	if err != nil {
		return err
	}

	reminded := 0
	for i := range payments {
		p := &payments[i]
		if err := s.notificationSvc.NotifyUser(ctx, p.Application.ApplicantUserID,
			"Payment reminder",
			fmt.Sprintf("Your %s payment of $%.2f is still pending.", p.PaymentType, p.Amount),
			models.NotificationTypePaymentFailed); err != nil {
			logger.Error(fmt.Sprintf("Failed to remind user %d: %v", p.Application.ApplicantUserID, err))
			continue
		}
		reminded++
	}
	logger.Info(fmt.Sprintf("Move-in reminders sent: %d of %d pending payments", reminded, len(payments)))
	return nil
}

func (s *PaymentService) notifyPaymentSettled(app *models.Application, payment *models.Payment, recordedByID uint) {
	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		if err := s.auditSvc.Log(jobCtx, recordedByID, "RECORD_PAYMENT", "Payment", payment.ID,
			fmt.Sprintf("%s payment of $%.2f (%s)", payment.PaymentType, payment.Amount, payment.Reference), "", ""); err != nil {
			return err
		}
		if err := s.notificationSvc.NotifyUser(jobCtx, app.ApplicantUserID,
			"Payment received",
			fmt.Sprintf("We received your %s payment of $%.2f.", payment.PaymentType, payment.Amount),
			models.NotificationTypePaymentReceived); err != nil {
			return err
		}
		applicant, err := s.userRepo.FindByID(jobCtx, app.ApplicantUserID)
		if err != nil {
			return err
		}
		return s.emailSvc.SendPaymentReceived(jobCtx, applicant, payment)
	})
}

func processorStatus(s string) (string, bool) {
	switch s {
	case "succeeded", "paid":
		return models.PaymentStatusPaid, true
	case "pending", "processing":
		return models.PaymentStatusPending, true
	case "failed", "canceled":
		return models.PaymentStatusFailed, true
	case "refunded":
		return models.PaymentStatusRefunded, true
	default:
		return "", false
	}
}
