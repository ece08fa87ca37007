package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/verification-api/pkg/auth"
)

// AdminTokenVerifier: проверка bearer-токена администратора
type AdminTokenVerifier interface {
	Verify(token string) (*auth.AdminClaims, error)
}

// AuthMiddleware защищает админские маршруты
type AuthMiddleware struct {
	verifier AdminTokenVerifier
	log      *zap.Logger
}

func NewAuthMiddleware(verifier AdminTokenVerifier, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthMiddleware{verifier: verifier, log: log.Named("auth")}
}

// AdminOnly пропускает только запросы с действительным токеном роли admin
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "error_type": "token_missing"})
			return
		}

		// Проверяем формат заголовка Bearer {token}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			return
		}

		claims, err := m.verifier.Verify(parts[1])
		if errors.Is(err, auth.ErrNotAdmin) {
			m.log.Warn("non-admin token on admin route", zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Permission denied.", "error_type": "permission_denied"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			return
		}

		c.Set("admin_id", claims.UserID)
		c.Set("admin_email", claims.Email)
		c.Next()
	}
}
