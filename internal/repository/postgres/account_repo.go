package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/verification-api/internal/domain/entity"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
)

// AccountRepo реализует repository.AccountRepository
type AccountRepo struct {
	db *gorm.DB
}

// NewAccountRepo создает репозиторий аккаунтов
func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, account *entity.Account) error {
	return wrapErr(r.db.WithContext(ctx).Create(account).Error, "create account")
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var account entity.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, wrapErr(err, "get account by email")
	}
	return &account, nil
}

func (r *AccountRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Account, error) {
	var accounts []entity.Account
	if len(ids) == 0 {
		return accounts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&accounts).Error
	return accounts, wrapErr(err, "get accounts by ids")
}

func (r *AccountRepo) List(ctx context.Context, verified *bool, limit, offset int) ([]entity.Account, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Account{})
	if verified != nil {
		query = query.Where("email_verified = ?", *verified)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrapErr(err, "count accounts")
	}

	var accounts []entity.Account
	err := query.Session(&gorm.Session{}).
		Order("id").Limit(limit).Offset(offset).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, wrapErr(err, "list accounts")
	}
	return accounts, total, nil
}

// SetVerified отмечает аккаунт подтвержденным. Отсутствие аккаунта не ошибка:
// гостевой checkout подтверждает email без учетной записи.
func (r *AccountRepo) SetVerified(ctx context.Context, email string, verifiedAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"email_verified":    true,
			"email_verified_at": verifiedAt,
		}).Error
	return wrapErr(err, "set account verified")
}

func (r *AccountRepo) ClearVerified(ctx context.Context, email string) error {
	err := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"email_verified":    false,
			"email_verified_at": nil,
		}).Error
	return wrapErr(err, "clear account verified")
}

func (r *AccountRepo) IsAccountVerified(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("email = ? AND email_verified = ?", email, true).
		Count(&count).Error
	if err != nil {
		return false, wrapErr(err, "check account verified")
	}
	return count > 0, nil
}

func (r *AccountRepo) UpdateEmail(ctx context.Context, oldEmail, newEmail string) error {
	result := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("email = ?", oldEmail).
		Update("email", newEmail)
	if result.Error != nil {
		return wrapErr(result.Error, "update account email")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) Delete(ctx context.Context, email string) error {
	result := r.db.WithContext(ctx).Where("email = ?", email).Delete(&entity.Account{})
	if result.Error != nil {
		return wrapErr(result.Error, "delete account")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
