package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
)

// AuthService validates bearer tokens issued by the identity provider
// and resolves them to an Identity the policy layer can evaluate.
type AuthService struct {
	JWTSecret string
}

// TokenClaims is the subset of provider claims the service cares about.
type TokenClaims struct {
	UserID string `json:"sub"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{JWTSecret: jwtSecret}
}

// ValidateToken verifies an HS256 token against the shared secret and
// returns its claims. Expired, malformed, or wrongly signed tokens all
// resolve to ErrUnauthenticated.
func (s *AuthService) ValidateToken(tokenString string) (*TokenClaims, error) {
	if s.JWTSecret == "" {
		return nil, fmt.Errorf("%w: token verification not configured", authz.ErrUnauthenticated)
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authz.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", authz.ErrUnauthenticated)
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: token expired", authz.ErrUnauthenticated)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: token missing email claim", authz.ErrUnauthenticated)
	}
	return claims, nil
}

// Identity maps validated claims onto the policy layer's identity.
// Any role other than admin collapses to the ordinary user role.
func (c *TokenClaims) Identity() authz.Identity {
	role := authz.RoleUser
	if c.Role == authz.RoleAdmin {
		role = authz.RoleAdmin
	}
	return authz.Identity{ID: c.UserID, Email: strings.ToLower(c.Email), Role: role}
}

// ExtractBearerToken pulls the token out of an Authorization header.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", authz.ErrUnauthenticated)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("%w: malformed authorization header", authz.ErrUnauthenticated)
	}
	return parts[1], nil
}
