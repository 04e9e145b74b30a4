package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// AuditHandler exposes the audit trail. Admin only.
type AuditHandler struct {
	Audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{Audit: audit}
}

// List handles POST /api/audit/list
func (h *AuditHandler) List(c *gin.Context) {
	entries, err := h.Audit.List(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "entries": entries})
}
