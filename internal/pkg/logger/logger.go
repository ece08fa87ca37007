package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New создает zap.Logger для сервиса.
// level берется из конфига, переменная окружения LOG_LEVEL имеет приоритет.
// В режиме разработки (GIN_MODE != release) используется консольный энкодер.
func New(level string) (*zap.Logger, error) {
	var config zap.Config
	if os.Getenv("GIN_MODE") == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = envLevel
	}
	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	return config.Build(
		zap.Fields(
			zap.String("service", "verification-api"),
		),
	)
}

// MaskEmail оставляет первый символ локальной части и домен: j***@example.com
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	local := []rune(email[:at])
	return string(local[0]) + "***" + email[at:]
}

// Email возвращает zap-поле с замаскированным адресом.
func Email(email string) zap.Field {
	return zap.String("email", MaskEmail(email))
}
