package repository

import (
	"context"

	"github.com/parkrow/parkrow-api/internal/models"
	"gorm.io/gorm"
)

// ApplicationQuery extends ListQuery with application-specific filters
type ApplicationQuery struct {
	*ListQuery
	Status  string
	UserID  uint
	IsAdmin bool
}

// ApplicationRepository defines the interface for application data access
type ApplicationRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Application, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Application, error)
	FindByUser(ctx context.Context, userID uint) ([]models.Application, error)
	FindSignedLeases(ctx context.Context) ([]models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ApplicationQuery) ([]models.Application, int64, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) FindByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Preload("ApplicantUser").
		Preload("Payments").
		First(&app, id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByUser(ctx context.Context, userID uint) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.WithContext(ctx).
		Where("applicant_user_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

// FindSignedLeases returns every application carrying a signed lease; the
// nightly integrity sweep re-renders each and compares audit hashes.
func (r *applicationRepository) FindSignedLeases(ctx context.Context) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.WithContext(ctx).
		Where("lease_signed = ?", true).
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

// Update persists the whole row in one statement. Signing relies on this:
// flags, file, signature and audit land together or not at all.
func (r *applicationRepository) Update(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *applicationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Application{}, id).Error
}

func (r *applicationRepository) List(ctx context.Context, query *ApplicationQuery) ([]models.Application, int64, error) {
	var apps []models.Application
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Application{})

	// Tenants only see their own applications
	if !query.IsAdmin {
		db = db.Where("applicant_user_id = ?", query.UserID)
	}

	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ? OR street ILIKE ? OR city ILIKE ?",
			search, search, search, search)
	}

	if query.Filters["lease_signed"] != "" {
		db = db.Where("lease_signed = ?", query.Filters["lease_signed"] == "true")
	}

	db.Count(&total)

	// Apply sorting
	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("created_at DESC")
	}

	// Apply pagination
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("ApplicantUser").Find(&apps).Error
	return apps, total, err
}
