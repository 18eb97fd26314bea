package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parkrow/parkrow-api/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Description Get audit logs, newest first (admin only)
// @Tags Audit
// @Produce json
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audit_logs [get]
func (h *AuditHandler) Index(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, total, err := h.auditService.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": logs,
		"total":      total,
	})
}

// @Summary Application Audit Trail
// @Description Get the audit trail of one application, oldest first (admin only)
// @Tags Audit
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /applications/{id}/audit_trail [get]
func (h *AuditHandler) ApplicationTrail(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	logs, err := h.auditService.ListForEntity(c.Request.Context(), "Application", uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_trail": logs})
}
