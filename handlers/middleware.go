package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// AuthMiddleware resolves each request's caller to an identity. It
// accepts either a provider-issued JWT or a minted API key in the
// Authorization header and stores the result in the gin context under
// "identity".
type AuthMiddleware struct {
	Auth    *services.AuthService
	Users   *services.UserService
	APIKeys *services.APIKeyService
}

func NewAuthMiddleware(auth *services.AuthService, users *services.UserService, apiKeys *services.APIKeyService) *AuthMiddleware {
	return &AuthMiddleware{Auth: auth, Users: users, APIKeys: apiKeys}
}

// RequireIdentity aborts with 401 unless the request carries a valid
// token or API key.
func (m *AuthMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED", "message": "authorization header is required"})
			c.Abort()
			return
		}

		token, err := services.ExtractBearerToken(authHeader)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED", "message": err.Error()})
			c.Abort()
			return
		}

		// API keys carry a recognizable prefix; everything else is
		// treated as a provider JWT.
		if strings.HasPrefix(token, "sbp_") {
			identity, err := m.APIKeys.ValidateKey(c.Request.Context(), token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED", "message": "invalid api key"})
				c.Abort()
				return
			}
			c.Set("identity", identity)
			c.Next()
			return
		}

		claims, err := m.Auth.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED", "message": "invalid token"})
			c.Abort()
			return
		}
		identity := claims.Identity()
		m.Users.EnsureUser(c.Request.Context(), identity)
		c.Set("identity", identity)
		c.Next()
	}
}
