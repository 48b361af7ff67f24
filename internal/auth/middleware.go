package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// identityKey is the gin context key carrying the verified caller identity
const identityKey = "identity"

// RequireAuth verifies the bearer token (Authorization header or the token
// cookie) and attaches the caller identity to the request context.
func (m *Manager) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "No token provided"})
			return
		}

		identity, err := m.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "Invalid or expired token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireAdmin rejects callers without the administrative role. It must run
// after RequireAuth.
func (m *Manager) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CallerIdentity(c)
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "Admin access required"})
			return
		}
		c.Next()
	}
}

// CallerIdentity returns the verified identity attached by RequireAuth
func CallerIdentity(c *gin.Context) api.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(api.Identity); ok {
			return identity
		}
	}
	return api.Identity{}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}
