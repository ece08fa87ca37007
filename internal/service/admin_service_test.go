package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
)

type adminMocks struct {
	records *MockVerificationRepository
	logs    *MockVerificationLogRepository
	sender  *MockEmailSender
}

func newTestAdminService(t *testing.T, cfg config.VerificationConfig) (*AdminService, *adminMocks) {
	t.Helper()
	m := &adminMocks{
		records: new(MockVerificationRepository),
		logs:    new(MockVerificationLogRepository),
		sender:  new(MockEmailSender),
	}
	renderer, err := NewTemplateRenderer(config.EmailConfig{SiteName: "Shop"})
	require.NoError(t, err)

	svc, err := NewAdminService(cfg, AdminDeps{
		Records:  m.records,
		Logs:     m.logs,
		Sender:   m.sender,
		Renderer: renderer,
		Audit:    NewAuditLogger(m.logs, nil),
	})
	require.NoError(t, err)
	return svc, m
}

func TestAdminSendTest(t *testing.T) {
	t.Run("sends demo code without state checks", func(t *testing.T) {
		cfg := testVerificationConfig()
		cfg.Enabled = false
		svc, m := newTestAdminService(t, cfg)
		m.sender.On("Send", mock.Anything, "admin@shop.example", "Your Verification Code - Shop",
			mock.MatchedBy(func(body string) bool {
				return strings.Contains(body, "123456") && strings.Contains(body, "expire in 10 minutes")
			})).Return(nil)
		m.logs.On("Create", mock.Anything, mock.MatchedBy(func(e *entity.VerificationLog) bool {
			return e.Action == entity.LogActionEmailSent && e.Metadata["test"] == true
		})).Return(nil)

		msg, err := svc.SendTest(context.Background(), "Admin@Shop.example", RequestMeta{IP: testIP})

		require.NoError(t, err)
		assert.Equal(t, "Test email sent successfully!", msg)
		m.sender.AssertExpectations(t)
		m.logs.AssertExpectations(t)
	})

	t.Run("delivery failure", func(t *testing.T) {
		svc, m := newTestAdminService(t, testVerificationConfig())
		m.sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout"))

		_, err := svc.SendTest(context.Background(), "admin@shop.example", RequestMeta{})

		assert.ErrorIs(t, err, ErrDeliveryFailed)
		assert.Equal(t, "Failed to send test email.", UserMessage(err))
		m.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid email", func(t *testing.T) {
		svc, _ := newTestAdminService(t, testVerificationConfig())
		_, err := svc.SendTest(context.Background(), "admin", RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})
}

func TestAdminStats(t *testing.T) {
	tests := []struct {
		name  string
		stats repository.VerificationStats
		rate  float64
	}{
		{name: "empty", stats: repository.VerificationStats{}, rate: 0},
		{name: "two thirds", stats: repository.VerificationStats{Total: 3, Verified: 2, Pending: 1}, rate: 66.7},
		{name: "all", stats: repository.VerificationStats{Total: 8, Verified: 8}, rate: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAdminService(t, testVerificationConfig())
			stats := tt.stats
			m.records.On("Stats", mock.Anything).Return(&stats, nil)

			report, err := svc.Stats(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.stats.Total, report.Total)
			assert.Equal(t, tt.rate, report.SuccessRate)
		})
	}
}

func TestAdminStats_StorageError(t *testing.T) {
	svc, m := newTestAdminService(t, testVerificationConfig())
	m.records.On("Stats", mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, ErrStorage)
}

func TestAdminRecentLogs_Limits(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{0, 20},
		{-5, 20},
		{50, 50},
		{1000, 200},
	}

	for _, tt := range tests {
		svc, m := newTestAdminService(t, testVerificationConfig())
		m.logs.On("Recent", mock.Anything, tt.want).Return([]entity.VerificationLog{}, nil)

		_, err := svc.RecentLogs(context.Background(), tt.requested)
		require.NoError(t, err)
		m.logs.AssertExpectations(t)
	}
}

func TestAdminExportLogs(t *testing.T) {
	svc, m := newTestAdminService(t, testVerificationConfig())
	since := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	m.logs.On("ListSince", mock.Anything, since).Return([]entity.VerificationLog{{ID: 1, Action: entity.LogActionCodeSent}}, nil)

	logs, err := svc.ExportLogs(context.Background(), since)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestAdminSettings_AreNormalized(t *testing.T) {
	cfg := testVerificationConfig()
	cfg.CodeLength = 12
	cfg.CodeExpiryMinutes = 0
	svc, _ := newTestAdminService(t, cfg)

	settings := svc.Settings()
	assert.Equal(t, config.DefaultCodeLength, settings.CodeLength)
	assert.Equal(t, config.DefaultCodeExpiryMinutes, settings.CodeExpiryMinutes)
	assert.Equal(t, 5, settings.RateLimitPerHour)
	assert.Contains(t, svc.DefaultTemplate(), "{verification_code}")
}
