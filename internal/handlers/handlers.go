package handlers

import (
	"github.com/parkrow/parkrow-api/internal/services"
	"github.com/parkrow/parkrow-api/internal/storage"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Application  *ApplicationHandler
	Lease        *LeaseHandler
	Payment      *PaymentHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, storage *storage.LocalStorage) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Application:  NewApplicationHandler(svcs.Application),
		Lease:        NewLeaseHandler(svcs.Lease, svcs.Application),
		Payment:      NewPaymentHandler(svcs.Payment, svcs.Statement, svcs.Application, storage),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit),
	}
}
