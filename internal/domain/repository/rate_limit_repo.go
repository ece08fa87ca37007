package repository

import (
	"context"
	"time"

	"github.com/yourusername/verification-api/internal/domain/entity"
)

// RateLimitRepository хранит счетчики фиксированного окна
type RateLimitRepository interface {
	// Consume атомарно проверяет и увеличивает счетчик (identifier, action).
	// Возвращает false, если лимит в текущем окне исчерпан; счетчик при этом не меняется.
	Consume(ctx context.Context, identifier string, action entity.RateLimitAction, limit int, window time.Duration) (bool, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	// DeleteByEmail удаляет счетчики, идентификатор которых заканчивается на "_"+email.
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}
