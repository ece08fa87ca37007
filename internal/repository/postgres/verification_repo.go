package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
)

// VerificationRepo реализует repository.VerificationRepository
type VerificationRepo struct {
	db  *gorm.DB
	now func() time.Time
}

// NewVerificationRepo создает репозиторий записей верификации
func NewVerificationRepo(db *gorm.DB) *VerificationRepo {
	return &VerificationRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *VerificationRepo) GetActive(ctx context.Context, email, codeHash string) (*entity.VerificationRecord, error) {
	query := r.db.WithContext(ctx).
		Where("email = ? AND verified = ? AND expires_at > ?", email, false, r.now())
	if codeHash != "" {
		query = query.Where("code_hash = ?", codeHash)
	}

	var record entity.VerificationRecord
	if err := query.Order("created_at DESC").Order("id DESC").First(&record).Error; err != nil {
		return nil, wrapErr(err, "get active verification record")
	}
	return &record, nil
}

func (r *VerificationRepo) Insert(ctx context.Context, record *entity.VerificationRecord) error {
	return wrapErr(r.db.WithContext(ctx).Create(record).Error, "insert verification record")
}

func (r *VerificationRepo) ReplaceActive(ctx context.Context, record *entity.VerificationRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", record.Email).Delete(&entity.VerificationRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	return wrapErr(err, "replace verification record")
}

func (r *VerificationRepo) UpdateAttempts(ctx context.Context, id uint, attempts int) error {
	result := r.db.WithContext(ctx).Model(&entity.VerificationRecord{}).
		Where("id = ?", id).
		Update("attempts", attempts)
	if result.Error != nil {
		return wrapErr(result.Error, "update attempts")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// IncrementAttempts увеличивает счетчик в SQL, без чтения значения
func (r *VerificationRepo) IncrementAttempts(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entity.VerificationRecord{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1))
	if result.Error != nil {
		return wrapErr(result.Error, "increment attempts")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *VerificationRepo) MarkVerified(ctx context.Context, id uint, verifiedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.VerificationRecord{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{
			"verified":    true,
			"verified_at": verifiedAt,
		})
	if result.Error != nil {
		return wrapErr(result.Error, "mark verified")
	}
	if result.RowsAffected == 0 {
		// Запись уже подтверждена параллельным запросом или удалена
		return fmt.Errorf("%w: verification record %d is no longer pending", apperrors.ErrConflict, id)
	}
	return nil
}

func (r *VerificationRepo) Refresh(ctx context.Context, id uint, codeHash string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.VerificationRecord{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{
			"code_hash":  codeHash,
			"expires_at": expiresAt,
			"attempts":   0,
		})
	if result.Error != nil {
		return wrapErr(result.Error, "refresh verification record")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *VerificationRepo) DeleteAllForEmail(ctx context.Context, email string) (int64, error) {
	result := r.db.WithContext(ctx).Where("email = ?", email).Delete(&entity.VerificationRecord{})
	return result.RowsAffected, wrapErr(result.Error, "delete verification records")
}

func (r *VerificationRepo) IsEmailEverVerified(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COUNT(*) FROM verification_records WHERE email = ? AND verified = ?) +
			(SELECT COUNT(*) FROM accounts WHERE email = ? AND email_verified = ?)
	`, email, true, email, true).Scan(&count).Error
	if err != nil {
		return false, wrapErr(err, "check email verified")
	}
	return count > 0, nil
}

// ChangeEmail переносит записи на новый адрес.
// Записи нового адреса удаляются заранее, чтобы не нарушить уникальный индекс.
func (r *VerificationRepo) ChangeEmail(ctx context.Context, oldEmail, newEmail string) (int64, error) {
	var moved int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", newEmail).Delete(&entity.VerificationRecord{}).Error; err != nil {
			return err
		}
		result := tx.Model(&entity.VerificationRecord{}).
			Where("email = ?", oldEmail).
			Update("email", newEmail)
		moved = result.RowsAffected
		return result.Error
	})
	return moved, wrapErr(err, "change verification email")
}

func (r *VerificationRepo) DeleteExpiredUnverified(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("verified = ? AND expires_at < ?", false, before).
		Delete(&entity.VerificationRecord{})
	return result.RowsAffected, wrapErr(result.Error, "delete expired verification records")
}

func (r *VerificationRepo) Stats(ctx context.Context) (*repository.VerificationStats, error) {
	var stats repository.VerificationStats
	db := r.db.WithContext(ctx).Model(&entity.VerificationRecord{})

	if err := db.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, wrapErr(err, "count verification records")
	}
	if err := db.Session(&gorm.Session{}).Where("verified = ?", true).Count(&stats.Verified).Error; err != nil {
		return nil, wrapErr(err, "count verified records")
	}
	if err := db.Session(&gorm.Session{}).
		Where("verified = ? AND expires_at > ?", false, r.now()).
		Count(&stats.Pending).Error; err != nil {
		return nil, wrapErr(err, "count pending records")
	}
	return &stats, nil
}
