package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
	"github.com/yourusername/verification-api/internal/pkg/logger"
)

const (
	defaultAccountPageSize = 20
	maxAccountPageSize     = 200
)

// AccountDeps собирает зависимости AccountService
type AccountDeps struct {
	Accounts     repository.AccountRepository
	Records      repository.VerificationRepository
	Logs         repository.VerificationLogRepository
	RateLimits   repository.RateLimitRepository
	Sessions     repository.SessionStore
	Verification *VerificationService
	Audit        *AuditLogger
	Logger       *zap.Logger
}

// AccountService связывает статус подтверждения email с учетными записями:
// регистрация, вход, смена адреса, удаление и массовые действия администратора.
type AccountService struct {
	accounts     repository.AccountRepository
	records      repository.VerificationRepository
	logs         repository.VerificationLogRepository
	rateLimits   repository.RateLimitRepository
	sessions     repository.SessionStore
	verification *VerificationService
	audit        *AuditLogger
	cfg          config.VerificationConfig
	log          *zap.Logger
	now          func() time.Time
}

func NewAccountService(cfg config.VerificationConfig, deps AccountDeps) (*AccountService, error) {
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if deps.Records == nil {
		return nil, fmt.Errorf("verification repository is required")
	}
	if deps.Logs == nil {
		return nil, fmt.Errorf("verification log repository is required")
	}
	if deps.RateLimits == nil {
		return nil, fmt.Errorf("rate limit repository is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Verification == nil {
		return nil, fmt.Errorf("verification service is required")
	}
	if deps.Audit == nil {
		return nil, fmt.Errorf("audit logger is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &AccountService{
		accounts:     deps.Accounts,
		records:      deps.Records,
		logs:         deps.Logs,
		rateLimits:   deps.RateLimits,
		sessions:     deps.Sessions,
		verification: deps.Verification,
		audit:        deps.Audit,
		cfg:          cfg,
		log:          deps.Logger.Named("accounts"),
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register создает аккаунт покупателя. Если email уже подтвержден (в сессии или в БД),
// аккаунт сразу помечается подтвержденным.
func (s *AccountService) Register(ctx context.Context, rawEmail string, meta RequestMeta) (*entity.Account, error) {
	email := entity.NormalizeEmail(rawEmail)
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	verified, source, err := s.verification.IsVerified(ctx, meta.SessionID, email)
	if err != nil {
		return nil, err
	}
	if s.cfg.Enabled && s.cfg.RegistrationRequired && !verified {
		return nil, ErrEmailNotVerified
	}

	account := &entity.Account{Email: email, Role: entity.RoleCustomer}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: account already exists", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("%w: create account: %v", ErrStorage, err)
	}

	if !verified {
		s.log.Info("account registered", logger.Email(email), zap.Uint("account_id", account.ID))
		return account, nil
	}

	now := s.now()
	if err := s.accounts.SetVerified(ctx, email, now); err != nil {
		return nil, fmt.Errorf("%w: set account verified: %v", ErrStorage, err)
	}
	account.EmailVerified = true
	account.EmailVerifiedAt = &now

	if source == verifiedSourceSession {
		s.forget(ctx, meta.SessionID, email)
	}
	s.audit.Record(ctx, email, entity.LogActionUserVerified, meta, map[string]interface{}{
		"user_id": account.ID,
		"source":  source,
	})
	s.log.Info("account registered with verified email",
		logger.Email(email), zap.Uint("account_id", account.ID), zap.String("source", source))

	return account, nil
}

// CanLogin отказывает во входе неподтвержденным покупателям.
// Администраторы проходят всегда.
func (s *AccountService) CanLogin(ctx context.Context, rawEmail string) error {
	email := entity.NormalizeEmail(rawEmail)
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: get account: %v", ErrStorage, err)
	}

	if !s.cfg.Enabled || account.IsAdmin() {
		return nil
	}
	if !account.EmailVerified {
		return ErrLoginNotVerified
	}
	return nil
}

// DeleteAccount удаляет аккаунт и все следы верификации для его email.
func (s *AccountService) DeleteAccount(ctx context.Context, rawEmail, sessionID string) error {
	email := entity.NormalizeEmail(rawEmail)
	if email == "" {
		return ErrInvalidEmail
	}

	if err := s.accounts.Delete(ctx, email); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: delete account: %v", ErrStorage, err)
	}

	records, err := s.records.DeleteAllForEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: delete verification records: %v", ErrStorage, err)
	}
	logs, err := s.logs.DeleteByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: delete verification logs: %v", ErrStorage, err)
	}
	limits, err := s.rateLimits.DeleteByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: delete rate limits: %v", ErrStorage, err)
	}
	s.forget(ctx, sessionID, email)

	s.log.Info("account deleted",
		logger.Email(email),
		zap.Int64("records", records),
		zap.Int64("logs", logs),
		zap.Int64("rate_limits", limits))
	return nil
}

// ChangeEmail меняет адрес аккаунта. Подтвержденный статус переносится на новый адрес,
// неподтвержденный сбрасывается вместе с записями нового адреса.
func (s *AccountService) ChangeEmail(ctx context.Context, rawOld, rawNew string, meta RequestMeta) error {
	oldEmail := entity.NormalizeEmail(rawOld)
	newEmail := entity.NormalizeEmail(rawNew)
	if !ValidEmail(oldEmail) || !ValidEmail(newEmail) {
		return ErrInvalidEmail
	}
	if oldEmail == newEmail {
		return nil
	}

	account, err := s.accounts.GetByEmail(ctx, oldEmail)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: get account: %v", ErrStorage, err)
	}

	if err := s.accounts.UpdateEmail(ctx, oldEmail, newEmail); err != nil {
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: update account email: %v", ErrStorage, err)
	}

	wasVerified := account.EmailVerified
	if wasVerified {
		if err := s.accounts.SetVerified(ctx, newEmail, s.now()); err != nil {
			return fmt.Errorf("%w: set account verified: %v", ErrStorage, err)
		}
		if _, err := s.records.ChangeEmail(ctx, oldEmail, newEmail); err != nil {
			return fmt.Errorf("%w: move verification records: %v", ErrStorage, err)
		}
		if _, err := s.records.DeleteAllForEmail(ctx, oldEmail); err != nil {
			return fmt.Errorf("%w: delete old verification records: %v", ErrStorage, err)
		}
		s.audit.Record(ctx, newEmail, entity.LogActionEmailChanged, meta, map[string]interface{}{
			"user_id":   account.ID,
			"old_email": oldEmail,
			"new_email": newEmail,
		})
	} else {
		if err := s.accounts.ClearVerified(ctx, newEmail); err != nil {
			return fmt.Errorf("%w: clear account verified: %v", ErrStorage, err)
		}
		if _, err := s.records.DeleteAllForEmail(ctx, newEmail); err != nil {
			return fmt.Errorf("%w: delete verification records: %v", ErrStorage, err)
		}
	}

	s.forget(ctx, meta.SessionID, oldEmail)
	if wasVerified && meta.SessionID != "" {
		if err := s.sessions.MarkVerified(ctx, meta.SessionID, newEmail); err != nil {
			s.log.Warn("failed to move session verification flag", zap.Error(err))
		}
	}

	s.log.Info("account email changed",
		zap.Uint("account_id", account.ID),
		zap.String("old_email", logger.MaskEmail(oldEmail)),
		zap.String("new_email", logger.MaskEmail(newEmail)),
		zap.Bool("verified", wasVerified))
	return nil
}

// BulkSetVerified подтверждает или сбрасывает email у выбранных аккаунтов.
// Администраторы пропускаются. Возвращает число измененных аккаунтов.
func (s *AccountService) BulkSetVerified(ctx context.Context, ids []uint, verified bool, meta RequestMeta) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no accounts selected", ErrInvalidInput)
	}

	accounts, err := s.accounts.GetByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("%w: get accounts: %v", ErrStorage, err)
	}

	changed := 0
	for _, account := range accounts {
		if account.IsAdmin() {
			continue
		}

		action := entity.LogActionBulkVerified
		if verified {
			err = s.accounts.SetVerified(ctx, account.Email, s.now())
		} else {
			action = entity.LogActionBulkUnverified
			err = s.accounts.ClearVerified(ctx, account.Email)
			if err == nil {
				_, err = s.records.DeleteAllForEmail(ctx, account.Email)
			}
		}
		if err != nil {
			return changed, fmt.Errorf("%w: bulk update account %d: %v", ErrStorage, account.ID, err)
		}

		s.audit.Record(ctx, account.Email, action, meta, map[string]interface{}{
			"user_id":      account.ID,
			"admin_action": true,
		})
		changed++
	}

	s.log.Info("bulk verification update", zap.Bool("verified", verified), zap.Int("changed", changed))
	return changed, nil
}

// AccountPage: страница списка аккаунтов
type AccountPage struct {
	Accounts []entity.Account `json:"accounts"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// List возвращает аккаунты с фильтром verified | unverified | "" (все).
func (s *AccountService) List(ctx context.Context, filter string, limit, offset int) (*AccountPage, error) {
	var verified *bool
	switch filter {
	case "":
	case "verified":
		v := true
		verified = &v
	case "unverified":
		v := false
		verified = &v
	default:
		return nil, fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, filter)
	}

	if limit <= 0 {
		limit = defaultAccountPageSize
	}
	if limit > maxAccountPageSize {
		limit = maxAccountPageSize
	}
	if offset < 0 {
		offset = 0
	}

	accounts, total, err := s.accounts.List(ctx, verified, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts: %v", ErrStorage, err)
	}
	return &AccountPage{Accounts: accounts, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *AccountService) forget(ctx context.Context, sessionID, email string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.Forget(ctx, sessionID, email); err != nil {
		s.log.Warn("failed to clear session verification flag", zap.Error(err))
	}
}
