package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thornlink/thorn/backend/internal/service"
)

const identityKey = "identity"

// TokenValidator is an interface for validating identity tokens
type TokenValidator interface {
	ValidateToken(token string) (*service.Identity, error)
}

// AuthMiddleware requires a valid identity. Browsers without one are sent to
// loginURL; API clients get 401 with the login location in "redirect".
func AuthMiddleware(validator TokenValidator, loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthenticated(c, loginURL, "missing or malformed authorization header")
			return
		}

		id, err := validator.ValidateToken(token)
		if err != nil {
			unauthenticated(c, loginURL, "invalid or expired token")
			return
		}

		c.Set(identityKey, *id)
		c.Next()
	}
}

// GetIdentity returns the identity stored by AuthMiddleware.
func GetIdentity(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return service.Identity{}, false
	}
	id, ok := v.(service.Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthenticated(c *gin.Context, loginURL, msg string) {
	if wantsHTML(c.Request) {
		c.Redirect(http.StatusFound, loginURL)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    msg,
		"redirect": loginURL,
	})
}

func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}
