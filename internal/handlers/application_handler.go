package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parkrow/parkrow-api/internal/middleware"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/parkrow/parkrow-api/internal/services"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// @Summary List Applications
// @Description Get a paginated list of applications for the current user (or all for admin)
// @Tags Applications
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /applications [get]
func (h *ApplicationHandler) Index(c *gin.Context) {
	query := &repository.ApplicationQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Status = c.Query("status")
	if leaseSigned := c.Query("lease_signed"); leaseSigned != "" {
		query.Filters["lease_signed"] = leaseSigned
	}
	query.UserID = middleware.GetUserID(c)
	query.IsAdmin = middleware.IsAdmin(c)

	apps, total, err := h.applicationService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, app := range apps {
		responses = append(responses, app.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Application
// @Description Get an application by ID
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} models.ApplicationResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Show(c *gin.Context) {
	app, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app.ToResponse()})
}

// @Summary Create Application
// @Description Open a draft rental application for the current user
// @Tags Applications
// @Accept json
// @Produce json
// @Param application body services.ApplicationInput true "Application"
// @Success 201 {object} models.ApplicationResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /applications [post]
func (h *ApplicationHandler) Create(c *gin.Context) {
	var input services.ApplicationInput
	if err := BindNestedOrFlat(c, "application", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.FirstName == "" || input.LastName == "" || input.Street == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "First name, last name and street are required"})
		return
	}

	app, err := h.applicationService.Create(c.Request.Context(), middleware.GetUserID(c), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"application": app.ToResponse()})
}

// @Summary Update Application
// @Description Edit a draft or rejected application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param application body services.ApplicationInput true "Application"
// @Success 200 {object} models.ApplicationResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id} [put]
func (h *ApplicationHandler) Update(c *gin.Context) {
	app, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	var input services.ApplicationInput
	if err := BindNestedOrFlat(c, "application", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.applicationService.Update(c.Request.Context(), app.ID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": updated.ToResponse()})
}

// @Summary Submit Application
// @Description Submit a draft application for review
// @Tags Applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} models.ApplicationResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/submit [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	app, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	updated, err := h.applicationService.Submit(c.Request.Context(), app.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": updated.ToResponse()})
}

type approveRequest struct {
	LeaseStartDate string  `json:"lease_start_date"`
	LeaseEndDate   string  `json:"lease_end_date"`
	RentalAmount   float64 `json:"rental_amount"`
	DepositAmount  float64 `json:"deposit_amount"`
}

// @Summary Approve Application
// @Description Approve a submitted application and record the offered lease terms
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param terms body approveRequest false "Lease terms"
// @Success 200 {object} models.ApplicationResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/approve [post]
func (h *ApplicationHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	var req approveRequest
	_ = BindNestedOrFlat(c, "terms", &req)

	updated, err := h.applicationService.Approve(c.Request.Context(), uint(id), middleware.GetUserID(c), services.GenerateLeaseInput{
		StartDate:    req.LeaseStartDate,
		EndDate:      req.LeaseEndDate,
		RentalAmount: req.RentalAmount,
		Deposit:      req.DepositAmount,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": updated.ToResponse()})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// @Summary Reject Application
// @Description Reject a submitted application with a reason
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param rejection body rejectRequest false "Rejection reason"
// @Success 200 {object} models.ApplicationResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/reject [post]
func (h *ApplicationHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	var req rejectRequest
	_ = BindNestedOrFlat(c, "rejection", &req)

	updated, err := h.applicationService.Reject(c.Request.Context(), uint(id), middleware.GetUserID(c), req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": updated.ToResponse()})
}

// @Summary Cancel Application
// @Description Withdraw an application that has not signed a lease
// @Tags Applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} models.ApplicationResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/cancel [post]
func (h *ApplicationHandler) Cancel(c *gin.Context) {
	app, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	updated, err := h.applicationService.Cancel(c.Request.Context(), app.ID, middleware.GetUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": updated.ToResponse()})
}

// loadAuthorized fetches the application in the id param and enforces that
// tenants only reach their own applications. Writes the error response itself.
func (h *ApplicationHandler) loadAuthorized(c *gin.Context) (*models.Application, bool) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	app, err := h.applicationService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return nil, false
	}
	if !middleware.IsAdmin(c) && app.ApplicantUserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this application"})
		return nil, false
	}
	return app, true
}

// respondServiceError maps service sentinel errors to HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrConsentRequired),
		errors.Is(err, services.ErrLeaseNotGenerated),
		errors.Is(err, services.ErrLeaseNotSigned),
		errors.Is(err, services.ErrUnsupportedImage),
		errors.Is(err, services.ErrUnknownMethod),
		errors.Is(err, services.ErrSignatureRequired),
		errors.Is(err, services.ErrDuplicateReference):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
