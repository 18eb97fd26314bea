package services

import (
	"github.com/parkrow/parkrow-api/internal/config"
	"github.com/parkrow/parkrow-api/internal/jobs"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/parkrow/parkrow-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Application  *ApplicationService
	Lease        *LeaseService
	Payment      *PaymentService
	Statement    *StatementService
	Notification *NotificationService
	Audit        *AuditService
	Email        *EmailService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, storage *storage.LocalStorage, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(db)

	return &Services{
		Application:  NewApplicationService(repos.Application, repos.User, notificationSvc, auditSvc, worker, cfg),
		Lease:        NewLeaseService(repos.Application, repos.User, notificationSvc, emailSvc, auditSvc, worker, cfg),
		Payment:      NewPaymentService(repos.Payment, repos.Application, repos.User, notificationSvc, emailSvc, auditSvc, storage, worker),
		Statement:    NewStatementService(repos.Application, repos.Payment, cfg),
		Notification: notificationSvc,
		Audit:        auditSvc,
		Email:        emailSvc,
	}
}
