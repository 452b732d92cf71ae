package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduvita-api/internal/models"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
	"github.com/noah-isme/eduvita-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// AccessTokenCookie carries the access token for browser sessions.
const AccessTokenCookie = "token"

// TokenValidator turns an access token into claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token from the
// Authorization header or, failing that, the session cookie.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := accessToken(c)
		if err != nil {
			response.Error(c, err)
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when present but does not block.
func OptionalJWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := accessToken(c); err == nil {
			if claims, err := validator.ValidateToken(token); err == nil {
				c.Set(ContextUserKey, claims)
			}
		}
		c.Next()
	}
}

// Claims returns the authenticated user's claims, if any.
func Claims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}

func accessToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", appErrors.ErrUnauthorized
}
