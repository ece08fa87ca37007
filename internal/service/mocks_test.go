package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
)

// ============================================================================
// Моки репозиториев и внешних зависимостей
// ============================================================================

// MockVerificationRepository реализует repository.VerificationRepository
type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) GetActive(ctx context.Context, email, codeHash string) (*entity.VerificationRecord, error) {
	args := m.Called(ctx, email, codeHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VerificationRecord), args.Error(1)
}

func (m *MockVerificationRepository) Insert(ctx context.Context, record *entity.VerificationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockVerificationRepository) ReplaceActive(ctx context.Context, record *entity.VerificationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockVerificationRepository) UpdateAttempts(ctx context.Context, id uint, attempts int) error {
	args := m.Called(ctx, id, attempts)
	return args.Error(0)
}

func (m *MockVerificationRepository) IncrementAttempts(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVerificationRepository) MarkVerified(ctx context.Context, id uint, verifiedAt time.Time) error {
	args := m.Called(ctx, id, verifiedAt)
	return args.Error(0)
}

func (m *MockVerificationRepository) Refresh(ctx context.Context, id uint, codeHash string, expiresAt time.Time) error {
	args := m.Called(ctx, id, codeHash, expiresAt)
	return args.Error(0)
}

func (m *MockVerificationRepository) DeleteAllForEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVerificationRepository) IsEmailEverVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRepository) ChangeEmail(ctx context.Context, oldEmail, newEmail string) (int64, error) {
	args := m.Called(ctx, oldEmail, newEmail)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVerificationRepository) DeleteExpiredUnverified(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVerificationRepository) Stats(ctx context.Context) (*repository.VerificationStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.VerificationStats), args.Error(1)
}

// MockRateLimitRepository реализует repository.RateLimitRepository
type MockRateLimitRepository struct {
	mock.Mock
}

func (m *MockRateLimitRepository) Consume(ctx context.Context, identifier string, action entity.RateLimitAction, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, identifier, action, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateLimitRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRateLimitRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

// MockVerificationLogRepository реализует repository.VerificationLogRepository
type MockVerificationLogRepository struct {
	mock.Mock
}

func (m *MockVerificationLogRepository) Create(ctx context.Context, entry *entity.VerificationLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockVerificationLogRepository) Recent(ctx context.Context, limit int) ([]entity.VerificationLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.VerificationLog), args.Error(1)
}

func (m *MockVerificationLogRepository) ListSince(ctx context.Context, since time.Time) ([]entity.VerificationLog, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.VerificationLog), args.Error(1)
}

func (m *MockVerificationLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVerificationLogRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

// MockAccountRepository реализует repository.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *entity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDs(ctx context.Context, ids []uint) ([]entity.Account, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Account), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, verified *bool, limit, offset int) ([]entity.Account, int64, error) {
	args := m.Called(ctx, verified, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) SetVerified(ctx context.Context, email string, verifiedAt time.Time) error {
	args := m.Called(ctx, email, verifiedAt)
	return args.Error(0)
}

func (m *MockAccountRepository) ClearVerified(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAccountRepository) IsAccountVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) UpdateEmail(ctx context.Context, oldEmail, newEmail string) error {
	args := m.Called(ctx, oldEmail, newEmail)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockSessionStore реализует repository.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) IsVerified(ctx context.Context, sessionID, email string) (bool, error) {
	args := m.Called(ctx, sessionID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) MarkVerified(ctx context.Context, sessionID, email string) error {
	args := m.Called(ctx, sessionID, email)
	return args.Error(0)
}

func (m *MockSessionStore) Forget(ctx context.Context, sessionID, email string) error {
	args := m.Called(ctx, sessionID, email)
	return args.Error(0)
}

// MockEmailSender реализует EmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

func (m *MockEmailSender) Name() string {
	return "mock"
}
