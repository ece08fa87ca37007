package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
	"github.com/yourusername/verification-api/internal/pkg/logger"
	"github.com/yourusername/verification-api/internal/pkg/metrics"
)

const rateLimitWindow = time.Hour

// RequestMeta: данные запроса, нужные для лимитов, аудита и сессии
type RequestMeta struct {
	IP        string
	UserAgent string
	SessionID string
}

// SendResult: ответ на отправку или повторную отправку кода
type SendResult struct {
	Message       string `json:"message"`
	ExpiryMinutes int    `json:"expiry_minutes"`
}

// StatusResult: ответ на проверку статуса
type StatusResult struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

type codeGenerator interface {
	Generate(length int) (string, error)
}

// VerificationDeps собирает зависимости VerificationService
type VerificationDeps struct {
	Records     repository.VerificationRepository
	Accounts    repository.AccountRepository
	Sessions    repository.SessionStore
	Limiter     *RateLimiter
	Sender      EmailSender
	Renderer    *TemplateRenderer
	Audit       *AuditLogger
	Codes       codeGenerator
	SendTimeout time.Duration
	Logger      *zap.Logger
}

// VerificationService управляет жизненным циклом кодов:
// NoRecord -> CodeSent -> Verified. Verified терминален.
type VerificationService struct {
	records     repository.VerificationRepository
	accounts    repository.AccountRepository
	sessions    repository.SessionStore
	limiter     *RateLimiter
	sender      EmailSender
	renderer    *TemplateRenderer
	audit       *AuditLogger
	codes       codeGenerator
	cfg         config.VerificationConfig
	sendTimeout time.Duration
	log         *zap.Logger
	now         func() time.Time
}

func NewVerificationService(cfg config.VerificationConfig, deps VerificationDeps) (*VerificationService, error) {
	if deps.Records == nil {
		return nil, fmt.Errorf("verification repository is required")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
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
	if deps.Codes == nil {
		deps.Codes = NewCodeGenerator()
	}
	if deps.SendTimeout <= 0 {
		deps.SendTimeout = 15 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	cfg.Normalize()

	return &VerificationService{
		records:     deps.Records,
		accounts:    deps.Accounts,
		sessions:    deps.Sessions,
		limiter:     deps.Limiter,
		sender:      deps.Sender,
		renderer:    deps.Renderer,
		audit:       deps.Audit,
		codes:       deps.Codes,
		cfg:         cfg,
		sendTimeout: deps.SendTimeout,
		log:         deps.Logger.Named("verification"),
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Send выдает новый код, заменяя активную запись для email.
func (s *VerificationService) Send(ctx context.Context, rawEmail string, meta RequestMeta) (*SendResult, error) {
	email := entity.NormalizeEmail(rawEmail)
	res, err := s.send(ctx, email, meta)
	s.finish(ctx, "send", entity.LogActionSendCodeError, email, meta, err)
	return res, err
}

func (s *VerificationService) send(ctx context.Context, email string, meta RequestMeta) (*SendResult, error) {
	if !s.cfg.Enabled {
		return nil, ErrVerificationDisabled
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := s.rejectVerified(ctx, email, meta.SessionID, true); err != nil {
		return nil, err
	}
	if err := s.consume(ctx, email, meta, entity.RateLimitActionSend, s.cfg.RateLimitPerHour, ErrRateLimited); err != nil {
		return nil, err
	}

	code, err := s.codes.Generate(s.cfg.CodeLength)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &entity.VerificationRecord{
		Email:     email,
		CodeHash:  s.hashCode(email, code),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.CodeExpiry()),
		SourceIP:  meta.IP,
		UserAgent: truncate(meta.UserAgent, 500),
	}
	if err := s.records.ReplaceActive(ctx, record); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: active record for email was replaced concurrently", ErrConcurrentRequest)
		}
		return nil, fmt.Errorf("%w: replace active record: %v", ErrStorage, err)
	}

	// Запись уже создана; при ошибке доставки она просто истечет.
	if err := s.deliver(ctx, email, code); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, email, entity.LogActionCodeSent, meta, map[string]interface{}{
		"code_length":    s.cfg.CodeLength,
		"expiry_minutes": s.cfg.CodeExpiryMinutes,
	})
	s.log.Info("verification code sent", logger.Email(email), zap.Uint("record_id", record.ID))

	return &SendResult{
		Message:       "Verification code sent to your email!",
		ExpiryMinutes: s.cfg.CodeExpiryMinutes,
	}, nil
}

// Verify проверяет код и переводит запись в подтвержденное состояние.
func (s *VerificationService) Verify(ctx context.Context, rawEmail, rawCode string, meta RequestMeta) (string, error) {
	email := entity.NormalizeEmail(rawEmail)
	msg, err := s.verify(ctx, email, strings.TrimSpace(rawCode), meta)
	s.finish(ctx, "verify", entity.LogActionVerifyCodeError, email, meta, err)
	return msg, err
}

func (s *VerificationService) verify(ctx context.Context, email, code string, meta RequestMeta) (string, error) {
	if !s.cfg.Enabled {
		return "", ErrVerificationDisabled
	}
	if !ValidEmail(email) || code == "" {
		return "", ErrInvalidCredentials
	}
	if err := s.rejectVerified(ctx, email, meta.SessionID, false); err != nil {
		return "", err
	}
	if err := s.consume(ctx, email, meta, entity.RateLimitActionVerify, s.cfg.RateLimitPerHour, ErrRateLimited); err != nil {
		return "", err
	}

	record, err := s.records.GetActive(ctx, email, s.hashCode(email, code))
	if errors.Is(err, apperrors.ErrNotFound) {
		s.countMismatch(ctx, email)
		return "", ErrInvalidOrExpiredCode
	}
	if err != nil {
		return "", fmt.Errorf("%w: get active record: %v", ErrStorage, err)
	}

	now := s.now()
	if err := s.records.MarkVerified(ctx, record.ID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return "", ErrAlreadyVerified
		}
		return "", fmt.Errorf("%w: mark verified: %v", ErrStorage, err)
	}

	if err := s.accounts.SetVerified(ctx, email, now); err != nil {
		return "", fmt.Errorf("%w: set account verified: %v", ErrStorage, err)
	}
	s.cacheVerified(ctx, meta.SessionID, email)

	s.audit.Record(ctx, email, entity.LogActionCodeVerified, meta, map[string]interface{}{
		"attempts": record.Attempts + 1,
	})
	s.log.Info("email verified", logger.Email(email), zap.Uint("record_id", record.ID))

	return "Email verified successfully!", nil
}

// countMismatch увеличивает счетчик попыток активной записи. Ошибки только логируются.
func (s *VerificationService) countMismatch(ctx context.Context, email string) {
	active, err := s.records.GetActive(ctx, email, "")
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn("failed to load active record", logger.Email(email), zap.Error(err))
		}
		return
	}
	if err := s.records.IncrementAttempts(ctx, active.ID); err != nil {
		s.log.Warn("failed to increment attempts", zap.Uint("record_id", active.ID), zap.Error(err))
	}
}

// Resend заменяет код активной записи, сбрасывает попытки и продлевает срок.
func (s *VerificationService) Resend(ctx context.Context, rawEmail string, meta RequestMeta) (*SendResult, error) {
	email := entity.NormalizeEmail(rawEmail)
	res, err := s.resend(ctx, email, meta)
	s.finish(ctx, "resend", entity.LogActionResendCodeError, email, meta, err)
	return res, err
}

func (s *VerificationService) resend(ctx context.Context, email string, meta RequestMeta) (*SendResult, error) {
	if !s.cfg.Enabled {
		return nil, ErrVerificationDisabled
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := s.rejectVerified(ctx, email, meta.SessionID, false); err != nil {
		return nil, err
	}

	active, err := s.records.GetActive(ctx, email, "")
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, ErrNoPendingVerification
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get active record: %v", ErrStorage, err)
	}

	if err := s.consume(ctx, email, meta, entity.RateLimitActionResend, s.cfg.ResendLimitPerHour, ErrResendRateLimited); err != nil {
		return nil, err
	}

	code, err := s.codes.Generate(s.cfg.CodeLength)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.cfg.CodeExpiry())
	if err := s.records.Refresh(ctx, active.ID, s.hashCode(email, code), expiresAt); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Запись подтвердили или заменили между чтением и обновлением.
			return nil, ErrNoPendingVerification
		}
		return nil, fmt.Errorf("%w: refresh record: %v", ErrStorage, err)
	}

	if err := s.deliver(ctx, email, code); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, email, entity.LogActionCodeResent, meta, map[string]interface{}{
		"code_length":    s.cfg.CodeLength,
		"expiry_minutes": s.cfg.CodeExpiryMinutes,
	})
	s.log.Info("verification code resent", logger.Email(email), zap.Uint("record_id", active.ID))

	return &SendResult{
		Message:       "New verification code sent to your email!",
		ExpiryMinutes: s.cfg.CodeExpiryMinutes,
	}, nil
}

// CheckStatus только читает состояние и не ограничивается лимитером.
func (s *VerificationService) CheckStatus(ctx context.Context, rawEmail, sessionID string) (*StatusResult, error) {
	email := entity.NormalizeEmail(rawEmail)
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	verified, _, err := s.isVerified(ctx, sessionID, email)
	if err != nil {
		s.log.Error("status check failed", logger.Email(email), zap.Error(err))
		metrics.VerificationOperations.WithLabelValues("status", "error").Inc()
		return nil, err
	}

	metrics.VerificationOperations.WithLabelValues("status", "success").Inc()
	if verified {
		return &StatusResult{Verified: true, Message: "Email is already verified."}, nil
	}
	return &StatusResult{Verified: false, Message: "Email not verified."}, nil
}

// ValidateCheckout пропускает заказ только с подтвержденным email.
func (s *VerificationService) ValidateCheckout(ctx context.Context, sessionID, rawEmail string) error {
	if !s.cfg.Enabled || !s.cfg.CheckoutRequired {
		return nil
	}
	email := entity.NormalizeEmail(rawEmail)
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}

	verified, source, err := s.isVerified(ctx, sessionID, email)
	if err != nil {
		return err
	}
	if !verified {
		return ErrCheckoutNotVerified
	}
	if source == verifiedSourceDatabase {
		s.cacheVerified(ctx, sessionID, email)
	}
	return nil
}

// IsVerified: сессия, затем подтвержденные записи и флаг аккаунта.
// Возвращает источник: session или database_record.
func (s *VerificationService) IsVerified(ctx context.Context, sessionID, email string) (bool, string, error) {
	return s.isVerified(ctx, sessionID, entity.NormalizeEmail(email))
}

const (
	verifiedSourceSession  = "session"
	verifiedSourceDatabase = "database_record"
)

func (s *VerificationService) isVerified(ctx context.Context, sessionID, email string) (bool, string, error) {
	if sessionID != "" {
		cached, err := s.sessions.IsVerified(ctx, sessionID, email)
		if err != nil {
			s.log.Warn("session store unavailable, falling back to database", zap.Error(err))
		} else if cached {
			return true, verifiedSourceSession, nil
		}
	}

	verified, err := s.records.IsEmailEverVerified(ctx, email)
	if err != nil {
		return false, "", fmt.Errorf("%w: is email verified: %v", ErrStorage, err)
	}
	if verified {
		return true, verifiedSourceDatabase, nil
	}
	return false, "", nil
}

// rejectVerified возвращает ErrAlreadyVerified для подтвержденного email.
// warm кладет флаг в сессию, если он найден только в БД.
func (s *VerificationService) rejectVerified(ctx context.Context, email, sessionID string, warm bool) error {
	verified, source, err := s.isVerified(ctx, sessionID, email)
	if err != nil {
		return err
	}
	if !verified {
		return nil
	}
	if warm && source == verifiedSourceDatabase {
		s.cacheVerified(ctx, sessionID, email)
	}
	return ErrAlreadyVerified
}

func (s *VerificationService) consume(ctx context.Context, email string, meta RequestMeta, action entity.RateLimitAction, limit int, denied error) error {
	allowed, err := s.limiter.CheckAndConsume(ctx, meta.IP+"_"+email, action, limit, rateLimitWindow)
	if err != nil {
		return err
	}
	if !allowed {
		return denied
	}
	return nil
}

func (s *VerificationService) deliver(ctx context.Context, email, code string) error {
	subject, body := s.renderer.Render(code, s.cfg.CodeExpiryMinutes)

	if err := sendWithTimeout(ctx, s.sender, s.sendTimeout, email, subject, body); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeliveryFailed, s.sender.Name(), err)
	}
	return nil
}

func (s *VerificationService) cacheVerified(ctx context.Context, sessionID, email string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.MarkVerified(ctx, sessionID, email); err != nil {
		s.log.Warn("failed to cache verified email in session", zap.Error(err))
	}
}

// finish пишет метрику, журнал ошибок и диагностический лог операции.
func (s *VerificationService) finish(ctx context.Context, op, errorAction, email string, meta RequestMeta, err error) {
	if err == nil {
		metrics.VerificationOperations.WithLabelValues(op, "success").Inc()
		return
	}

	kind := ErrorKind(err)
	if kind == "" {
		kind = "internal"
	}
	metrics.VerificationOperations.WithLabelValues(op, kind).Inc()

	if IsInfrastructure(err) || kind == "internal" {
		s.log.Error(op+" failed", logger.Email(email), zap.String("ip", meta.IP), zap.Error(err))
	} else {
		s.log.Info(op+" rejected", logger.Email(email), zap.String("error_type", kind))
	}

	if errors.Is(err, ErrVerificationDisabled) {
		return
	}
	s.audit.Record(ctx, email, errorAction, meta, map[string]interface{}{
		"error": UserMessage(err),
	})
}

// hashCode: HMAC-SHA256(pepper, email:code). Код в открытом виде не хранится.
func (s *VerificationService) hashCode(email, code string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.CodePepper))
	mac.Write([]byte(email + ":" + code))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidEmail проверяет, что строка - одиночный адрес без имени.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}
