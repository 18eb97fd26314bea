package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parkrow/parkrow-api/internal/middleware"
	"github.com/parkrow/parkrow-api/internal/models"
	"github.com/parkrow/parkrow-api/internal/services"
)

type LeaseHandler struct {
	leaseService       *services.LeaseService
	applicationService *services.ApplicationService
}

func NewLeaseHandler(leaseService *services.LeaseService, applicationService *services.ApplicationService) *LeaseHandler {
	return &LeaseHandler{leaseService: leaseService, applicationService: applicationService}
}

// @Summary Generate Lease
// @Description Generate the lease for an approved application
// @Tags Lease
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param terms body services.GenerateLeaseInput false "Term overrides"
// @Success 200 {object} models.ApplicationResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/lease/generate [post]
func (h *LeaseHandler) Generate(c *gin.Context) {
	app, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	var input services.GenerateLeaseInput
	_ = BindNestedOrFlat(c, "lease", &input)

	generated, err := h.leaseService.Generate(c.Request.Context(), app.ID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": generated.ToResponse()})
}

// @Summary Preview Lease
// @Description Render the lease text and content hash without persisting anything
// @Tags Lease
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} services.LeasePreview
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/lease/preview [get]
func (h *LeaseHandler) Preview(c *gin.Context) {
	app, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	preview, err := h.leaseService.Preview(c.Request.Context(), app.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lease": preview})
}

// @Summary Sign Lease
// @Description Execute the lease with a typed or drawn signature
// @Tags Lease
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param signature body services.SignLeaseInput true "Signature"
// @Success 200 {object} models.ApplicationResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/lease/sign [post]
func (h *LeaseHandler) Sign(c *gin.Context) {
	app, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	var input services.SignLeaseInput
	if err := BindNestedOrFlat(c, "signature", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	input.IPAddress = c.ClientIP()
	input.UserAgent = c.Request.UserAgent()

	signed, err := h.leaseService.Sign(c.Request.Context(), app.ID, middleware.GetUserID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": signed.ToResponse()})
}

// @Summary Download Signed Lease
// @Description Download the signed lease PDF
// @Tags Lease
// @Produce application/pdf
// @Param id path int true "Application ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/lease/download [get]
func (h *LeaseHandler) Download(c *gin.Context) {
	app, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	file, data, err := h.leaseService.Download(c.Request.Context(), app.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.MimeType, data)
}

// @Summary Remove Signed Lease
// @Description Discard the signed lease and its signature records
// @Tags Lease
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} models.ApplicationResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/lease [delete]
func (h *LeaseHandler) Remove(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	app, err := h.leaseService.Remove(c.Request.Context(), uint(id), middleware.GetUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app.ToResponse()})
}

// @Summary Verify Lease Integrity
// @Description Re-render the lease and compare against the hash recorded at signing
// @Tags Lease
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /applications/{id}/lease/verify [get]
func (h *LeaseHandler) Verify(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	ok, currentHash, storedHash, err := h.leaseService.VerifyIntegrity(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":         ok,
		"stored_hash":   storedHash,
		"computed_hash": currentHash,
	})
}

func (h *LeaseHandler) loadAuthorized(c *gin.Context) (*models.Application, bool) {
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
