package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// IntegrationHandler reports external provider configuration. Secret
// values never cross this boundary; only the push public key does.
type IntegrationHandler struct {
	Integrations *services.IntegrationService
}

func NewIntegrationHandler(integrations *services.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{Integrations: integrations}
}

// Status handles POST /api/integrations/status
func (h *IntegrationHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "integrations": h.Integrations.Status()})
}

// PublicKey handles POST /api/push/public-key
func (h *IntegrationHandler) PublicKey(c *gin.Context) {
	key := h.Integrations.PublicKey()
	if key == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "push is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "public_key": key})
}
