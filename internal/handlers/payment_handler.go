package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parkrow/parkrow-api/internal/middleware"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/parkrow/parkrow-api/internal/services"
	"github.com/parkrow/parkrow-api/internal/storage"
)

type PaymentHandler struct {
	paymentService     *services.PaymentService
	statementService   *services.StatementService
	applicationService *services.ApplicationService
	storage            *storage.LocalStorage
}

func NewPaymentHandler(paymentService *services.PaymentService, statementService *services.StatementService, applicationService *services.ApplicationService, storage *storage.LocalStorage) *PaymentHandler {
	return &PaymentHandler{
		paymentService:     paymentService,
		statementService:   statementService,
		applicationService: applicationService,
		storage:            storage,
	}
}

// authorizedApplicationID parses the application id param and enforces that
// tenants only reach their own applications. Writes the error response itself.
func (h *PaymentHandler) authorizedApplicationID(c *gin.Context) (uint, bool) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	app, err := h.applicationService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return 0, false
	}
	if !middleware.IsAdmin(c) && app.ApplicantUserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this application"})
		return 0, false
	}
	return app.ID, true
}

// @Summary List Payments
// @Description Get a paginated list of payments (admin only)
// @Tags Payments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param method query string false "Filter by method"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if status := c.Query("status"); status != "" {
		query.Filters["status"] = status
	}
	if method := c.Query("method"); method != "" {
		query.Filters["method"] = method
	}
	if appID := c.Query("application_id"); appID != "" {
		query.Filters["application_id"] = appID
	}

	payments, total, err := h.paymentService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, payment := range payments {
		responses = append(responses, payment.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Record Check Payment
// @Description Record a check received by hand (admin only)
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment body services.RecordCheckInput true "Check payment"
// @Success 201 {object} models.PaymentResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payments/checks [post]
func (h *PaymentHandler) RecordCheck(c *gin.Context) {
	var input services.RecordCheckInput
	if err := BindNestedOrFlat(c, "payment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.ApplicationID == 0 || input.Amount <= 0 || input.CheckNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Application, amount and check number are required"})
		return
	}

	payment, err := h.paymentService.RecordCheck(c.Request.Context(), middleware.GetUserID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment.ToResponse()})
}

// @Summary Processor Webhook
// @Description Record-keeping endpoint for card processor events
// @Tags Payments
// @Accept json
// @Produce json
// @Param event body services.ProcessorEvent true "Processor event"
// @Success 200 {object} models.PaymentResponse
// @Failure 400 {object} map[string]string
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var event services.ProcessorEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	payment, err := h.paymentService.ApplyProcessorEvent(c.Request.Context(), event)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary Attach Receipt
// @Description Upload a receipt image for a payment (admin only)
// @Tags Payments
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Payment ID"
// @Param receipt formData file true "Receipt file"
// @Success 200 {object} models.PaymentResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{id}/receipt [post]
func (h *PaymentHandler) AttachReceipt(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	file, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt file is required"})
		return
	}

	payment, err := h.paymentService.AttachReceipt(c.Request.Context(), uint(id), file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary Download Receipt
// @Description Download the stored receipt for a payment (admin only)
// @Tags Payments
// @Produce octet-stream
// @Param id path int true "Payment ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) DownloadReceipt(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	payment, err := h.paymentService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if payment.ReceiptPath == nil || !h.storage.Exists(*payment.ReceiptPath) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No receipt on file for this payment"})
		return
	}

	c.FileAttachment(h.storage.FullPath(*payment.ReceiptPath), filepath.Base(*payment.ReceiptPath))
}

// @Summary Payment Summary
// @Description Reconcile an application's payments against its lease terms
// @Tags Payments
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} services.PaymentSummary
// @Security BearerAuth
// @Router /applications/{id}/payments/summary [get]
func (h *PaymentHandler) Summary(c *gin.Context) {
	id, ok := h.authorizedApplicationID(c)
	if !ok {
		return
	}

	summary, err := h.paymentService.Summary(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// @Summary Application Payments
// @Description List all payments recorded for one application
// @Tags Payments
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /applications/{id}/payments [get]
func (h *PaymentHandler) ByApplication(c *gin.Context) {
	id, ok := h.authorizedApplicationID(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.FindByApplication(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, payment := range payments {
		responses = append(responses, payment.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"payments": responses})
}

// @Summary Account Statement PDF
// @Description Download an account statement for one application
// @Tags Payments
// @Produce application/pdf
// @Param id path int true "Application ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /applications/{id}/statement [get]
func (h *PaymentHandler) Statement(c *gin.Context) {
	id, ok := h.authorizedApplicationID(c)
	if !ok {
		return
	}

	buf, filename, err := h.statementService.GenerateStatementPDF(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// @Summary Export Payment Ledger
// @Description Export the payment ledger as CSV or XLSX (admin only)
// @Tags Payments
// @Produce octet-stream
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /payments/export [get]
func (h *PaymentHandler) Export(c *gin.Context) {
	query := repository.NewListQuery()
	if status := c.Query("status"); status != "" {
		query.Filters["status"] = status
	}

	var data []byte
	var filename string
	var err error
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		data, filename, err = h.statementService.ExportLedgerXLSX(c.Request.Context(), query)
		if err == nil {
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
			return
		}
	default:
		data, filename, err = h.statementService.ExportLedgerCSV(c.Request.Context(), query)
		if err == nil {
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			c.Data(http.StatusOK, "text/csv", data)
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
