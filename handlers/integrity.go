package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// IntegrityHandler exposes the referential integrity audit. Admin only.
type IntegrityHandler struct {
	Integrity *services.IntegrityService
	Audit     *services.AuditService
}

func NewIntegrityHandler(integrity *services.IntegrityService, audit *services.AuditService) *IntegrityHandler {
	return &IntegrityHandler{Integrity: integrity, Audit: audit}
}

// Check handles POST /api/integrity/check
func (h *IntegrityHandler) Check(c *gin.Context) {
	identity := identityFrom(c)
	if err := authz.RequireAdmin(identity); err != nil {
		respondError(c, err)
		return
	}
	report, err := h.Integrity.RunIntegrityCheck(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "integrity.check", identity,
		map[string]any{"total_issues": report.TotalIssues}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
