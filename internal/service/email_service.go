package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/internal/pkg/logger"
	"github.com/yourusername/verification-api/internal/pkg/metrics"
)

// EmailSender отправляет уже отрендеренное письмо.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
	Name() string
}

// NewEmailSender выбирает реализацию по email.provider
func NewEmailSender(cfg config.EmailConfig, log *zap.Logger) (EmailSender, error) {
	from := formatFrom(cfg.FromName, cfg.FromEmail)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "resend":
		return NewResendSender(cfg.ResendAPIKey, from)
	case "smtp":
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, from)
	case "", "noop":
		return NewNoopSender(log), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Provider)
	}
}

// sendWithTimeout ограничивает отправку дедлайном и учитывает результат в метриках
func sendWithTimeout(ctx context.Context, sender EmailSender, timeout time.Duration, to, subject, body string) error {
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sender.Send(sendCtx, to, subject, body); err != nil {
		metrics.EmailDeliveries.WithLabelValues(sender.Name(), "failed").Inc()
		return err
	}
	metrics.EmailDeliveries.WithLabelValues(sender.Name(), "sent").Inc()
	return nil
}

func formatFrom(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// NoopSender только пишет в лог. Используется локально и в тестовых окружениях.
type NoopSender struct {
	log *zap.Logger
}

func NewNoopSender(log *zap.Logger) *NoopSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoopSender{log: log.Named("email")}
}

func (s *NoopSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.log.Info("noop send", logger.Email(to), zap.String("subject", subject))
	return nil
}

func (s *NoopSender) Name() string { return "noop" }

// ResendSender отправляет письма через REST API Resend.
type ResendSender struct {
	from   string
	client *resend.Client
}

func NewResendSender(apiKey, from string) (*ResendSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendSender{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendSender) Name() string { return "resend" }

func (s *ResendSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" || htmlBody == "" {
		return fmt.Errorf("recipient and body are required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}
	// Повтор того же письма (новый код дает новый ключ) Resend не доставит дважды.
	options := &resend.SendEmailOptions{IdempotencyKey: idempotencyKey(to, subject, htmlBody)}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func idempotencyKey(to, subject, htmlBody string) string {
	sum := sha256.Sum256([]byte(to + "|" + subject + "|" + htmlBody))
	return "email-verify:" + hex.EncodeToString(sum[:16])
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}

// smtpDialer: часть gomail.Dialer, нужная отправителю
type smtpDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender отправляет письма через SMTP (gomail).
type SMTPSender struct {
	from   string
	dialer smtpDialer
}

func NewSMTPSender(host string, port int, user, password, from string) (*SMTPSender, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		from:   from,
		dialer: gomail.NewDialer(host, port, user, password),
	}, nil
}

func (s *SMTPSender) Name() string { return "smtp" }

// Send не блокирует дольше дедлайна ctx: gomail не принимает контекст,
// поэтому DialAndSend выполняется в отдельной горутине.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" || htmlBody == "" {
		return fmt.Errorf("recipient and body are required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
