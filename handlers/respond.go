package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// respondError maps service errors onto the wire taxonomy. Unknown
// errors collapse to a generic 500 so internals never leak.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED", "message": err.Error()})
	case errors.Is(err, authz.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN", "message": err.Error()})
	case errors.Is(err, authz.ErrNotFound), errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": err.Error()})
	case errors.Is(err, authz.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": err.Error()})
	case errors.Is(err, authz.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "CONFLICT", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "internal error"})
	}
}

// respondBadRequest reports a malformed request body.
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": err.Error()})
}

// identityFrom returns the identity the auth middleware attached.
func identityFrom(c *gin.Context) authz.Identity {
	v, ok := c.Get("identity")
	if !ok {
		return authz.Identity{}
	}
	identity, _ := v.(authz.Identity)
	return identity
}
