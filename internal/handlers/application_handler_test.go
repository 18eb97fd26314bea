package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/parkrow/parkrow-api/internal/config"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/parkrow/parkrow-api/internal/services"
	"github.com/stretchr/testify/assert"
)

type mockApplicationRepo struct {
	repository.ApplicationRepository
	mockList     func(ctx context.Context, query *repository.ApplicationQuery) ([]models.Application, int64, error)
	mockFindByID func(ctx context.Context, id uint) (*models.Application, error)
}

func (m *mockApplicationRepo) List(ctx context.Context, query *repository.ApplicationQuery) ([]models.Application, int64, error) {
	return m.mockList(ctx, query)
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id uint) (*models.Application, error) {
	return m.mockFindByID(ctx, id)
}

func newTestApplicationHandler(repo *mockApplicationRepo) *ApplicationHandler {
	svc := services.NewApplicationService(repo, nil, nil, nil, nil, &config.Config{})
	return NewApplicationHandler(svc)
}

func TestApplicationHandler_Index_ScopesToUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &mockApplicationRepo{}
	handler := newTestApplicationHandler(repo)

	var captured *repository.ApplicationQuery
	repo.mockList = func(ctx context.Context, query *repository.ApplicationQuery) ([]models.Application, int64, error) {
		captured = query
		return []models.Application{}, 0, nil
	}

	// Tenant request: the query carries their user id and no admin flag
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/applications?status=approved&lease_signed=true", nil)
	c.Set("userID", uint(42))
	c.Set("userRole", models.RoleTenant)
	handler.Index(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), captured.UserID)
	assert.False(t, captured.IsAdmin)
	assert.Equal(t, "approved", captured.Status)
	assert.Equal(t, "true", captured.Filters["lease_signed"])

	// Admin request: the admin flag is set so the repository skips the scope
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/applications?page=2&per_page=5", nil)
	c.Set("userID", uint(1))
	c.Set("userRole", models.RoleAdmin)
	handler.Index(c)

	assert.True(t, captured.IsAdmin)
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 5, captured.PerPage)
}

func TestApplicationHandler_Show_OwnershipEnforced(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &mockApplicationRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Application, error) {
			return &models.Application{ID: id, ApplicantUserID: 42, Status: models.ApplicationStatusDraft}, nil
		},
	}
	handler := newTestApplicationHandler(repo)

	// The owner sees their application
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/applications/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Set("userID", uint(42))
	c.Set("userRole", models.RoleTenant)
	handler.Show(c)
	assert.Equal(t, http.StatusOK, w.Code)

	// Another tenant gets a 403
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/applications/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Set("userID", uint(99))
	c.Set("userRole", models.RoleTenant)
	handler.Show(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An admin sees any application
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/applications/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Set("userID", uint(1))
	c.Set("userRole", models.RoleAdmin)
	handler.Show(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
