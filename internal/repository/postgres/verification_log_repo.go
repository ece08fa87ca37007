package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/verification-api/internal/domain/entity"
)

// VerificationLogRepo реализует repository.VerificationLogRepository
type VerificationLogRepo struct {
	db *gorm.DB
}

// NewVerificationLogRepo создает репозиторий журнала
func NewVerificationLogRepo(db *gorm.DB) *VerificationLogRepo {
	return &VerificationLogRepo{db: db}
}

func (r *VerificationLogRepo) Create(ctx context.Context, entry *entity.VerificationLog) error {
	return wrapErr(r.db.WithContext(ctx).Create(entry).Error, "create verification log")
}

func (r *VerificationLogRepo) Recent(ctx context.Context, limit int) ([]entity.VerificationLog, error) {
	var entries []entity.VerificationLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, wrapErr(err, "list recent verification logs")
}

func (r *VerificationLogRepo) ListSince(ctx context.Context, since time.Time) ([]entity.VerificationLog, error) {
	var entries []entity.VerificationLog
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	return entries, wrapErr(err, "list verification logs")
}

func (r *VerificationLogRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&entity.VerificationLog{})
	return result.RowsAffected, wrapErr(result.Error, "delete old verification logs")
}

func (r *VerificationLogRepo) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("email = ?", email).
		Delete(&entity.VerificationLog{})
	return result.RowsAffected, wrapErr(result.Error, "delete verification logs by email")
}
