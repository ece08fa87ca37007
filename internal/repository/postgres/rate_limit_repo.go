package postgres

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/verification-api/internal/domain/entity"
)

// consumeSQL: проверка и увеличение счетчика одним запросом.
// Новая строка или истекшее окно дают attempts = 1; внутри окна счетчик растет,
// пока не достигнет лимита. При исчерпанном лимите WHERE отбрасывает UPDATE
// и RETURNING не возвращает строк.
const consumeSQL = `
	INSERT INTO verification_rate_limits (identifier, action, attempts, last_attempt)
	VALUES (?, ?, 1, ?)
	ON CONFLICT (identifier, action) DO UPDATE SET
		attempts = CASE
			WHEN verification_rate_limits.last_attempt < ? THEN 1
			ELSE verification_rate_limits.attempts + 1
		END,
		last_attempt = excluded.last_attempt
	WHERE verification_rate_limits.last_attempt < ?
		OR verification_rate_limits.attempts < ?
	RETURNING attempts`

// RateLimitRepo реализует repository.RateLimitRepository
type RateLimitRepo struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRateLimitRepo создает репозиторий счетчиков
func NewRateLimitRepo(db *gorm.DB) *RateLimitRepo {
	return &RateLimitRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *RateLimitRepo) Consume(ctx context.Context, identifier string, action entity.RateLimitAction, limit int, window time.Duration) (bool, error) {
	now := r.now()
	cutoff := now.Add(-window)

	var attempts []int
	err := r.db.WithContext(ctx).
		Raw(consumeSQL, identifier, string(action), now, cutoff, cutoff, limit).
		Scan(&attempts).Error
	if err != nil {
		return false, wrapErr(err, "consume rate limit")
	}
	return len(attempts) > 0, nil
}

func (r *RateLimitRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("last_attempt < ?", before).
		Delete(&entity.RateLimit{})
	return result.RowsAffected, wrapErr(result.Error, "delete stale rate limits")
}

func (r *RateLimitRepo) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	pattern := "%" + escapeLike("_"+email)
	result := r.db.WithContext(ctx).
		Where(`identifier LIKE ? ESCAPE '\'`, pattern).
		Delete(&entity.RateLimit{})
	return result.RowsAffected, wrapErr(result.Error, "delete rate limits by email")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
