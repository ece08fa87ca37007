package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CSRFHeader: заголовок с CSRF токеном
	CSRFHeader = "X-CSRF-Token"

	sessionIDKey = "session_id"
)

// SessionConfig: параметры cookie сессии
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session выдает cookie с идентификатором сессии, если ее нет или значение некорректно,
// и кладет идентификатор в контекст gin.
func Session(cfg SessionConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = "ev_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	return func(c *gin.Context) {
		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || !validSessionID(sid) {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, sid, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
		}
		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

func validSessionID(sid string) bool {
	_, err := uuid.Parse(sid)
	return err == nil
}

// SessionID возвращает идентификатор сессии, установленный Session.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// CSRFToken: hex HMAC-SHA256(secret, sessionID)
func CSRFToken(secret, sessionID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// RequireCSRF проверяет X-CSRF-Token до запуска обработчика.
// Должен стоять после Session.
func RequireCSRF(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := SessionID(c)
		got := c.GetHeader(CSRFHeader)
		if sid == "" || got == "" || !hmac.Equal([]byte(got), []byte(CSRFToken(secret, sid))) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "Security check failed.",
				"error_type": "security_check_failed",
			})
			return
		}
		c.Next()
	}
}
