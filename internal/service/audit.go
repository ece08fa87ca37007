package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/internal/pkg/logger"
)

// AuditLogger добавляет записи в журнал верификации.
// Ошибка записи только логируется и не прерывает вызывающую операцию.
type AuditLogger struct {
	repo repository.VerificationLogRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewAuditLogger(repo repository.VerificationLogRepository, log *zap.Logger) *AuditLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditLogger{
		repo: repo,
		log:  log.Named("audit"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (a *AuditLogger) Record(ctx context.Context, email, action string, meta RequestMeta, metadata map[string]interface{}) {
	entry := &entity.VerificationLog{
		Email:     email,
		Action:    action,
		IPAddress: meta.IP,
		UserAgent: truncate(meta.UserAgent, 500),
		Metadata:  metadata,
		CreatedAt: a.now(),
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		a.log.Error("failed to write audit entry",
			zap.String("action", action),
			logger.Email(email),
			zap.Error(err))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
