package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// APIKeyHandler mints API keys for automation callers. Admin only.
type APIKeyHandler struct {
	APIKeys *services.APIKeyService
	Audit   *services.AuditService
}

func NewAPIKeyHandler(apiKeys *services.APIKeyService, audit *services.AuditService) *APIKeyHandler {
	return &APIKeyHandler{APIKeys: apiKeys, Audit: audit}
}

// Create handles POST /api/api-keys/create. The plaintext secret is in
// this response and nowhere else.
func (h *APIKeyHandler) Create(c *gin.Context) {
	identity := identityFrom(c)
	var input struct {
		Name      string `json:"name"`
		UserEmail string `json:"user_email"`
		Role      string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	key, secret, err := h.APIKeys.CreateKey(c.Request.Context(), identity, input.Name, input.UserEmail, input.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "apikey.create", identity,
		map[string]any{"key_id": key.ID, "user_email": key.UserEmail}, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"success": true, "key": key, "secret": secret})
}
