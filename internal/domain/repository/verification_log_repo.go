package repository

import (
	"context"
	"time"

	"github.com/yourusername/verification-api/internal/domain/entity"
)

// VerificationLogRepository: журнал аудита, только добавление и чтение
type VerificationLogRepository interface {
	Create(ctx context.Context, entry *entity.VerificationLog) error
	Recent(ctx context.Context, limit int) ([]entity.VerificationLog, error)
	ListSince(ctx context.Context, since time.Time) ([]entity.VerificationLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}
