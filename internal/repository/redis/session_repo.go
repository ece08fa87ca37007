package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
)

const sessionKeyPrefix = "ev:sess"

// SessionRepo реализует repository.SessionStore поверх Redis.
// Ключ: ev:sess:{session_id}:{sha256(email)}, значение "1", TTL = время жизни сессии.
type SessionRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSessionRepo создает хранилище сессионных флагов
func NewSessionRepo(client redis.UniversalClient, ttl time.Duration) (*SessionRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("Redis client cannot be nil for SessionRepo")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepo{client: client, ttl: ttl}, nil
}

func (r *SessionRepo) IsVerified(ctx context.Context, sessionID, email string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	err := r.client.Get(ctx, sessionKey(sessionID, email)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: session get: %v", apperrors.ErrStorage, err)
	}
	return true, nil
}

func (r *SessionRepo) MarkVerified(ctx context.Context, sessionID, email string) error {
	if sessionID == "" {
		return nil
	}
	if err := r.client.Set(ctx, sessionKey(sessionID, email), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: session set: %v", apperrors.ErrStorage, err)
	}
	return nil
}

func (r *SessionRepo) Forget(ctx context.Context, sessionID, email string) error {
	if sessionID == "" {
		return nil
	}
	if err := r.client.Del(ctx, sessionKey(sessionID, email)).Err(); err != nil {
		return fmt.Errorf("%w: session delete: %v", apperrors.ErrStorage, err)
	}
	return nil
}

func sessionKey(sessionID, email string) string {
	sum := sha256.Sum256([]byte(email))
	return fmt.Sprintf("%s:%s:%s", sessionKeyPrefix, sessionID, hex.EncodeToString(sum[:]))
}
