package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/service"
)

// MockVerificationService реализует VerificationService
type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Send(ctx context.Context, email string, meta service.RequestMeta) (*service.SendResult, error) {
	args := m.Called(ctx, email, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SendResult), args.Error(1)
}

func (m *MockVerificationService) Verify(ctx context.Context, email, code string, meta service.RequestMeta) (string, error) {
	args := m.Called(ctx, email, code, meta)
	return args.String(0), args.Error(1)
}

func (m *MockVerificationService) Resend(ctx context.Context, email string, meta service.RequestMeta) (*service.SendResult, error) {
	args := m.Called(ctx, email, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SendResult), args.Error(1)
}

func (m *MockVerificationService) CheckStatus(ctx context.Context, email, sessionID string) (*service.StatusResult, error) {
	args := m.Called(ctx, email, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatusResult), args.Error(1)
}

func (m *MockVerificationService) ValidateCheckout(ctx context.Context, sessionID, email string) error {
	args := m.Called(ctx, sessionID, email)
	return args.Error(0)
}

// MockAccountService реализует AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, email string, meta service.RequestMeta) (*entity.Account, error) {
	args := m.Called(ctx, email, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *MockAccountService) CanLogin(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, email, sessionID string) error {
	args := m.Called(ctx, email, sessionID)
	return args.Error(0)
}

func (m *MockAccountService) ChangeEmail(ctx context.Context, oldEmail, newEmail string, meta service.RequestMeta) error {
	args := m.Called(ctx, oldEmail, newEmail, meta)
	return args.Error(0)
}

func (m *MockAccountService) BulkSetVerified(ctx context.Context, ids []uint, verified bool, meta service.RequestMeta) (int, error) {
	args := m.Called(ctx, ids, verified, meta)
	return args.Int(0), args.Error(1)
}

func (m *MockAccountService) List(ctx context.Context, filter string, limit, offset int) (*service.AccountPage, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccountPage), args.Error(1)
}

// MockAdminService реализует AdminService
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) SendTest(ctx context.Context, email string, meta service.RequestMeta) (string, error) {
	args := m.Called(ctx, email, meta)
	return args.String(0), args.Error(1)
}

func (m *MockAdminService) Stats(ctx context.Context) (*service.VerificationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerificationReport), args.Error(1)
}

func (m *MockAdminService) RecentLogs(ctx context.Context, limit int) ([]entity.VerificationLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.VerificationLog), args.Error(1)
}

func (m *MockAdminService) ExportLogs(ctx context.Context, since time.Time) ([]entity.VerificationLog, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.VerificationLog), args.Error(1)
}

func (m *MockAdminService) DefaultTemplate() string {
	return m.Called().String(0)
}

func (m *MockAdminService) Settings() service.VerificationSettings {
	return m.Called().Get(0).(service.VerificationSettings)
}
