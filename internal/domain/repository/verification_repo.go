package repository

import (
	"context"
	"time"

	"github.com/yourusername/verification-api/internal/domain/entity"
)

// VerificationStats: агрегаты по таблице записей верификации
type VerificationStats struct {
	Total    int64 `json:"total_verifications"`
	Verified int64 `json:"verified_verifications"`
	Pending  int64 `json:"pending_verifications"`
}

// VerificationRepository хранит записи верификации.
// Отсутствие записи возвращается как apperrors.ErrNotFound,
// нарушение уникальности активной записи как apperrors.ErrConflict.
type VerificationRepository interface {
	// GetActive возвращает последнюю неподтвержденную и неистекшую запись для email.
	// Пустой codeHash означает поиск без фильтра по коду.
	GetActive(ctx context.Context, email, codeHash string) (*entity.VerificationRecord, error)
	Insert(ctx context.Context, record *entity.VerificationRecord) error
	// ReplaceActive удаляет все записи email и вставляет новую в одной транзакции.
	ReplaceActive(ctx context.Context, record *entity.VerificationRecord) error
	UpdateAttempts(ctx context.Context, id uint, attempts int) error
	IncrementAttempts(ctx context.Context, id uint) error
	// MarkVerified возвращает apperrors.ErrConflict, если запись уже подтверждена.
	MarkVerified(ctx context.Context, id uint, verifiedAt time.Time) error
	// Refresh заменяет код неподтвержденной записи, сбрасывает попытки и продлевает срок.
	Refresh(ctx context.Context, id uint, codeHash string, expiresAt time.Time) error
	DeleteAllForEmail(ctx context.Context, email string) (int64, error)
	// IsEmailEverVerified учитывает и подтвержденные записи, и флаг аккаунта.
	IsEmailEverVerified(ctx context.Context, email string) (bool, error)
	ChangeEmail(ctx context.Context, oldEmail, newEmail string) (int64, error)
	DeleteExpiredUnverified(ctx context.Context, before time.Time) (int64, error)
	Stats(ctx context.Context) (*VerificationStats, error)
}
