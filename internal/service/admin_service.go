package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/internal/pkg/logger"
)

const (
	testEmailCode          = "123456"
	testEmailExpiryMinutes = 10

	defaultRecentLogs = 20
	maxRecentLogs     = 200
)

// VerificationReport: статистика для панели администратора
type VerificationReport struct {
	repository.VerificationStats
	SuccessRate float64 `json:"success_rate"`
}

// VerificationSettings: действующие (после нормализации) настройки верификации
type VerificationSettings struct {
	Enabled              bool `json:"enabled"`
	CheckoutRequired     bool `json:"checkout_required"`
	RegistrationRequired bool `json:"registration_required"`
	CodeLength           int  `json:"code_length"`
	CodeExpiryMinutes    int  `json:"code_expiry_minutes"`
	RateLimitPerHour     int  `json:"rate_limit_per_hour"`
	ResendLimitPerHour   int  `json:"resend_limit_per_hour"`
}

// AdminDeps собирает зависимости AdminService
type AdminDeps struct {
	Records     repository.VerificationRepository
	Logs        repository.VerificationLogRepository
	Sender      EmailSender
	Renderer    *TemplateRenderer
	Audit       *AuditLogger
	SendTimeout time.Duration
	Logger      *zap.Logger
}

// AdminService: операции панели администратора
type AdminService struct {
	records     repository.VerificationRepository
	logs        repository.VerificationLogRepository
	sender      EmailSender
	renderer    *TemplateRenderer
	audit       *AuditLogger
	cfg         config.VerificationConfig
	sendTimeout time.Duration
	log         *zap.Logger
}

func NewAdminService(cfg config.VerificationConfig, deps AdminDeps) (*AdminService, error) {
	if deps.Records == nil {
		return nil, fmt.Errorf("verification repository is required")
	}
	if deps.Logs == nil {
		return nil, fmt.Errorf("verification log repository is required")
	}
	if deps.Sender == nil {
		return nil, fmt.Errorf("email sender is required")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("template renderer is required")
	}
	if deps.Audit == nil {
		return nil, fmt.Errorf("audit logger is required")
	}
	if deps.SendTimeout <= 0 {
		deps.SendTimeout = 15 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	cfg.Normalize()

	return &AdminService{
		records:     deps.Records,
		logs:        deps.Logs,
		sender:      deps.Sender,
		renderer:    deps.Renderer,
		audit:       deps.Audit,
		cfg:         cfg,
		sendTimeout: deps.SendTimeout,
		log:         deps.Logger.Named("admin"),
	}, nil
}

// SendTest отправляет письмо с демонстрационным кодом. Состояние верификации не проверяется.
func (s *AdminService) SendTest(ctx context.Context, rawEmail string, meta RequestMeta) (string, error) {
	email := entity.NormalizeEmail(rawEmail)
	if !ValidEmail(email) {
		return "", ErrInvalidEmail
	}

	subject, body := s.renderer.Render(testEmailCode, testEmailExpiryMinutes)
	if err := sendWithTimeout(ctx, s.sender, s.sendTimeout, email, subject, body); err != nil {
		s.log.Error("test email failed", logger.Email(email), zap.String("provider", s.sender.Name()), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrTestDeliveryFailed, err)
	}

	s.audit.Record(ctx, email, entity.LogActionEmailSent, meta, map[string]interface{}{
		"test": true,
	})
	return "Test email sent successfully!", nil
}

func (s *AdminService) Stats(ctx context.Context) (*VerificationReport, error) {
	stats, err := s.records.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %v", ErrStorage, err)
	}
	return &VerificationReport{
		VerificationStats: *stats,
		SuccessRate:       successRate(stats.Verified, stats.Total),
	}, nil
}

// successRate: доля подтвержденных в процентах, округленная до десятых
func successRate(verified, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(verified)/float64(total)*1000) / 10
}

// RecentLogs возвращает последние записи журнала (по умолчанию 20, не больше 200).
func (s *AdminService) RecentLogs(ctx context.Context, limit int) ([]entity.VerificationLog, error) {
	if limit <= 0 {
		limit = defaultRecentLogs
	}
	if limit > maxRecentLogs {
		limit = maxRecentLogs
	}
	logs, err := s.logs.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent logs: %v", ErrStorage, err)
	}
	return logs, nil
}

// ExportLogs возвращает записи журнала начиная с since для выгрузки.
func (s *AdminService) ExportLogs(ctx context.Context, since time.Time) ([]entity.VerificationLog, error) {
	logs, err := s.logs.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%w: export logs: %v", ErrStorage, err)
	}
	return logs, nil
}

func (s *AdminService) DefaultTemplate() string {
	return DefaultEmailTemplate()
}

func (s *AdminService) Settings() VerificationSettings {
	return VerificationSettings{
		Enabled:              s.cfg.Enabled,
		CheckoutRequired:     s.cfg.CheckoutRequired,
		RegistrationRequired: s.cfg.RegistrationRequired,
		CodeLength:           s.cfg.CodeLength,
		CodeExpiryMinutes:    s.cfg.CodeExpiryMinutes,
		RateLimitPerHour:     s.cfg.RateLimitPerHour,
		ResendLimitPerHour:   s.cfg.ResendLimitPerHour,
	}
}
