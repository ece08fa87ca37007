package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
)

// isUniqueViolation проверяет нарушение уникальности:
// gorm.ErrDuplicatedKey (TranslateError), pgx/v5 (pgconn.PgError) и lib/pq (23505)
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

// wrapErr переводит ошибку gorm в ошибки приложения.
func wrapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrConflict, op, err)
	}
	return fmt.Errorf("%w: %s: %v", apperrors.ErrStorage, op, err)
}
