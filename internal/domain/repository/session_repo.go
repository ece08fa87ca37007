package repository

import "context"

// SessionStore: кеш "email подтвержден в этой сессии".
// Только оптимизация: источником истины остается БД.
type SessionStore interface {
	IsVerified(ctx context.Context, sessionID, email string) (bool, error)
	MarkVerified(ctx context.Context, sessionID, email string) error
	Forget(ctx context.Context, sessionID, email string) error
}
