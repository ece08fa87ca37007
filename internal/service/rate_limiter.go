package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/internal/pkg/metrics"
)

// RateLimiter: счетчик фиксированного окна на (identifier, action).
// Атомарность обеспечивает хранилище; в памяти процесса состояние не держится.
type RateLimiter struct {
	repo repository.RateLimitRepository
	log  *zap.Logger
}

func NewRateLimiter(repo repository.RateLimitRepository, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{repo: repo, log: log.Named("rate_limiter")}
}

// CheckAndConsume возвращает true и учитывает попытку, если лимит не исчерпан.
// Ошибка хранилища возвращается как ErrStorage.
func (l *RateLimiter) CheckAndConsume(ctx context.Context, identifier string, action entity.RateLimitAction, limit int, window time.Duration) (bool, error) {
	allowed, err := l.repo.Consume(ctx, identifier, action, limit, window)
	if err != nil {
		return false, fmt.Errorf("%w: rate limit check: %v", ErrStorage, err)
	}
	if !allowed {
		metrics.RateLimitDenials.WithLabelValues(string(action)).Inc()
		l.log.Info("rate limit exceeded",
			zap.String("action", string(action)),
			zap.Int("limit", limit),
			zap.Duration("window", window))
	}
	return allowed, nil
}
