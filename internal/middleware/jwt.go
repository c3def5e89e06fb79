package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-club-api/internal/models"
	appErrors "github.com/noah-isme/sports-club-api/pkg/errors"
	"github.com/noah-isme/sports-club-api/pkg/response"
)

// ContextClaimsKey is the gin context key storing the operator's token claims.
const ContextClaimsKey = "operatorClaims"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(token string) (*models.Claims, error)
}

// JWT protects routes by requiring a valid bearer token.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "geçersiz yetkilendirme başlığı"))
			c.Abort()
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by JWT, or nil on unauthenticated routes.
func ClaimsFromContext(c *gin.Context) *models.Claims {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.Claims)
	return claims
}

// OperatorLogFields names the authenticated operator on request log lines.
func OperatorLogFields(c *gin.Context) []zap.Field {
	claims := ClaimsFromContext(c)
	if claims == nil || claims.Subject == "" {
		return nil
	}
	return []zap.Field{zap.String("operator", claims.Subject)}
}
