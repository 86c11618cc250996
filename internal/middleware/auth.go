package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coffeeshop/internal/authz"
	"coffeeshop/internal/logger"
	"coffeeshop/internal/services"
)

const principalKey = "principal"

// TokenParser turns a bearer token into the caller's principal.
type TokenParser interface {
	ParseAccessToken(raw string) (services.Principal, error)
}

// Authenticate validates the bearer token and stores the principal on the
// context for handlers to read with PrincipalFrom.
func Authenticate(parser TokenParser) gin.HandlerFunc {
	log := logger.Named("auth")
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			log.Debug("invalid token format", zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		principal, err := parser.ParseAccessToken(parts[1])
		if err != nil {
			log.Debug("token validation failed", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireCapability must run after Authenticate.
func RequireCapability(capability authz.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !authz.Can(principal.Role, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (services.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return services.Principal{}, false
	}
	principal, ok := value.(services.Principal)
	return principal, ok
}

// SetPrincipal is used by tests that exercise handlers without a token.
func SetPrincipal(c *gin.Context, principal services.Principal) {
	c.Set(principalKey, principal)
}
