package services

import (
	"context"
	"fmt"
	"time"

	"github.com/parkrow/parkrow-api/internal/config"
	"github.com/parkrow/parkrow-api/internal/jobs"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/parkrow/parkrow-api/internal/statemachine"
	"github.com/parkrow/parkrow-api/pkg/logger"
)

// ApplicationInput is the tenant-editable portion of an application
type ApplicationInput struct {
	FirstName            string  `json:"first_name" binding:"required"`
	LastName             string  `json:"last_name" binding:"required"`
	CoApplicantFirstName *string `json:"co_applicant_first_name"`
	CoApplicantLastName  *string `json:"co_applicant_last_name"`
	Phone                string  `json:"phone"`
	Street               string  `json:"street" binding:"required"`
	City                 string  `json:"city"`
	State                string  `json:"state"`
	Zip                  string  `json:"zip"`
}

// ApplicationService owns the rental application lifecycle
type ApplicationService struct {
	applicationRepo repository.ApplicationRepository
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
	auditSvc        *AuditService
	worker          *jobs.Worker
	cfg             *config.Config
}

// NewApplicationService creates the application service
func NewApplicationService(
	applicationRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
	worker *jobs.Worker,
	cfg *config.Config,
) *ApplicationService {
	return &ApplicationService{
		applicationRepo: applicationRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
		worker:          worker,
		cfg:             cfg,
	}
}

func (s *ApplicationService) FindByID(ctx context.Context, id uint) (*models.Application, error) {
	app, err := s.applicationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return app, nil
}

func (s *ApplicationService) FindByIDWithDetails(ctx context.Context, id uint) (*models.Application, error) {
	app, err := s.applicationRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, query *repository.ApplicationQuery) ([]models.Application, int64, error) {
	return s.applicationRepo.List(ctx, query)
}

// Create opens a draft application for the applicant. City and state fall
// back to the configured market when the form leaves them blank.
func (s *ApplicationService) Create(ctx context.Context, applicantUserID uint, input ApplicationInput) (*models.Application, error) {
	if input.City == "" {
		input.City = s.cfg.DefaultCity
	}
	if input.State == "" {
		input.State = s.cfg.DefaultState
	}
	app := &models.Application{
		ApplicantUserID:      applicantUserID,
		FirstName:            input.FirstName,
		LastName:             input.LastName,
		CoApplicantFirstName: input.CoApplicantFirstName,
		CoApplicantLastName:  input.CoApplicantLastName,
		Phone:                input.Phone,
		Street:               input.Street,
		City:                 input.City,
		State:                input.State,
		Zip:                  input.Zip,
		Status:               models.ApplicationStatusDraft,
	}
	if err := s.applicationRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Update edits a draft or rejected application
func (s *ApplicationService) Update(ctx context.Context, id uint, input ApplicationInput) (*models.Application, error) {
	app, err := s.applicationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !app.MayEdit() {
		return nil, fmt.Errorf("%w: application can no longer be edited", ErrInvalidState)
	}

	app.FirstName = input.FirstName
	app.LastName = input.LastName
	app.CoApplicantFirstName = input.CoApplicantFirstName
	app.CoApplicantLastName = input.CoApplicantLastName
	app.Phone = input.Phone
	app.Street = input.Street
	app.City = input.City
	app.State = input.State
	app.Zip = input.Zip

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Submit moves a draft to the review queue and tells the admins
func (s *ApplicationService) Submit(ctx context.Context, id uint) (*models.Application, error) {
	app, err := s.applicationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	fsm := statemachine.NewApplicationFSM(app)
	if err := fsm.Submit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	now := time.Now().UTC()
	app.SubmittedAt = &now

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		return s.notificationSvc.NotifyAdmins(jobCtx,
			"Application submitted",
			fmt.Sprintf("%s submitted an application for %s.", app.FullName(), app.FullAddress()),
			models.NotificationTypeApplicationSubmitted)
	})
	return app, nil
}

// Approve accepts a submitted application and records the lease terms offered
func (s *ApplicationService) Approve(ctx context.Context, id, actorUserID uint, terms GenerateLeaseInput) (*models.Application, error) {
	app, err := s.applicationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	fsm := statemachine.NewApplicationFSM(app)
	if err := fsm.Approve(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	now := time.Now().UTC()
	app.ApprovedAt = &now
	app.RejectionReason = nil

	if terms.StartDate != "" {
		app.LeaseStartDate = terms.StartDate
	}
	if terms.EndDate != "" {
		app.LeaseEndDate = terms.EndDate
	}
	if terms.RentalAmount > 0 {
		app.RentalAmount = terms.RentalAmount
	}
	if terms.Deposit > 0 {
		app.DepositAmount = terms.Deposit
	}

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		if err := s.auditSvc.Log(jobCtx, actorUserID, "APPROVE", "Application", app.ID, "Application approved", "", ""); err != nil {
			return err
		}
		return s.notificationSvc.NotifyUser(jobCtx, app.ApplicantUserID,
			"Application approved",
			fmt.Sprintf("Your application for %s was approved.", app.FullAddress()),
			models.NotificationTypeApplicationApproved)
	})

	logger.Info(fmt.Sprintf("Application %d approved by user %d", app.ID, actorUserID))
	return app, nil
}

// Reject declines a submitted application with a reason the applicant sees
func (s *ApplicationService) Reject(ctx context.Context, id, actorUserID uint, reason string) (*models.Application, error) {
	app, err := s.applicationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	fsm := statemachine.NewApplicationFSM(app)
	if err := fsm.Reject(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if reason != "" {
		app.RejectionReason = &reason
	}

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		if err := s.auditSvc.Log(jobCtx, actorUserID, "REJECT", "Application", app.ID, reason, "", ""); err != nil {
			return err
		}
		return s.notificationSvc.NotifyUser(jobCtx, app.ApplicantUserID,
			"Application update",
			"Your application was not approved. You may revise and resubmit it.",
			models.NotificationTypeApplicationRejected)
	})
	return app, nil
}

// Cancel withdraws an application that has not signed a lease
func (s *ApplicationService) Cancel(ctx context.Context, id, actorUserID uint) (*models.Application, error) {
	app, err := s.applicationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	fsm := statemachine.NewApplicationFSM(app)
	if err := fsm.Cancel(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		return s.auditSvc.Log(jobCtx, actorUserID, "CANCEL", "Application", app.ID, "Application cancelled", "", "")
	})
	return app, nil
}
