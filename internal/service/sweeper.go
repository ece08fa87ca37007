package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/internal/pkg/metrics"
)

// Sweeper периодически удаляет истекшие коды, старые записи журнала и счетчики лимитов.
type Sweeper struct {
	records    repository.VerificationRepository
	logs       repository.VerificationLogRepository
	rateLimits repository.RateLimitRepository
	cfg        config.VerificationConfig
	log        *zap.Logger
	now        func() time.Time
}

func NewSweeper(
	cfg config.VerificationConfig,
	records repository.VerificationRepository,
	logs repository.VerificationLogRepository,
	rateLimits repository.RateLimitRepository,
	log *zap.Logger,
) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	cfg.Normalize()
	return &Sweeper{
		records:    records,
		logs:       logs,
		rateLimits: rateLimits,
		cfg:        cfg,
		log:        log.Named("sweeper"),
		now:        time.Now,
	}
}

// SweepResult: количество удаленных строк по таблицам
type SweepResult struct {
	Records    int64
	Logs       int64
	RateLimits int64
}

// Run выполняет очистку каждые SweepInterval до отмены ctx.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.log.Info("Запуск периодической очистки", zap.Duration("interval", s.cfg.SweepInterval))

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.log.Info("Завершение работы горутины очистки")
			return
		}
	}
}

// Sweep выполняет один проход. Ошибка одного шага не останавливает остальные.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	now := s.now()
	var res SweepResult

	if n, err := s.records.DeleteExpiredUnverified(ctx, now); err != nil {
		s.log.Error("Ошибка очистки истекших кодов", zap.Error(err))
	} else {
		res.Records = n
		metrics.SweptRows.WithLabelValues("verification_records").Add(float64(n))
	}

	logCutoff := now.AddDate(0, 0, -s.cfg.LogRetentionDays)
	if n, err := s.logs.DeleteOlderThan(ctx, logCutoff); err != nil {
		s.log.Error("Ошибка очистки журнала верификации", zap.Error(err))
	} else {
		res.Logs = n
		metrics.SweptRows.WithLabelValues("verification_logs").Add(float64(n))
	}

	limitCutoff := now.Add(-time.Duration(s.cfg.RateLimitRetentionHours) * time.Hour)
	if n, err := s.rateLimits.DeleteOlderThan(ctx, limitCutoff); err != nil {
		s.log.Error("Ошибка очистки счетчиков лимитов", zap.Error(err))
	} else {
		res.RateLimits = n
		metrics.SweptRows.WithLabelValues("verification_rate_limits").Add(float64(n))
	}

	if res.Records+res.Logs+res.RateLimits > 0 {
		s.log.Info("sweep finished",
			zap.Int64("records", res.Records),
			zap.Int64("logs", res.Logs),
			zap.Int64("rate_limits", res.RateLimits),
		)
	}
	return res
}
