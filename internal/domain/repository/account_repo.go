package repository

import (
	"context"
	"time"

	"github.com/yourusername/verification-api/internal/domain/entity"
)

// AccountRepository: хранилище аккаунтов и их флага подтверждения email
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Account, error)
	// List фильтрует по флагу подтверждения, nil - без фильтра.
	List(ctx context.Context, verified *bool, limit, offset int) ([]entity.Account, int64, error)
	SetVerified(ctx context.Context, email string, verifiedAt time.Time) error
	ClearVerified(ctx context.Context, email string) error
	IsAccountVerified(ctx context.Context, email string) (bool, error)
	UpdateEmail(ctx context.Context, oldEmail, newEmail string) error
	Delete(ctx context.Context, email string) error
}
