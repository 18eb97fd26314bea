package repository

import (
	"context"

	"github.com/parkrow/parkrow-api/internal/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	FindByApplication(ctx context.Context, applicationID uint) ([]models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Application").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByApplication(ctx context.Context, applicationID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if isDuplicateKeyError(err, "idx_payments_reference") {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Payment{})

	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}
	if query.Filters["method"] != "" {
		db = db.Where("method = ?", query.Filters["method"])
	}
	if query.Filters["application_id"] != "" {
		db = db.Where("application_id = ?", query.Filters["application_id"])
	}

	db.Count(&total)

	db = db.Order("created_at DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Application").Find(&payments).Error
	return payments, total, err
}
