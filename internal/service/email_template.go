package service

import (
	_ "embed"
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"

	"github.com/yourusername/verification-api/internal/config"
)

//go:embed templates/verification_email.html
var defaultEmailTemplate string

// DefaultEmailTemplate возвращает встроенный HTML шаблон письма
func DefaultEmailTemplate() string {
	return defaultEmailTemplate
}

// Тексты письма по умолчанию. Могут содержать плейсхолдеры {site_name} и HTML.
const (
	defaultHeaderTitle    = "Email Verification"
	defaultMainHeading    = "Verify Your Email Address"
	defaultIntroText      = "Thank you for registering with {site_name}. To complete your registration, please verify your email address using the code below:"
	defaultCodeLabel      = "Your Verification Code:"
	defaultSecurityNotice = "If you didn't request this verification code, please ignore this email. Your account security is important to us."
	defaultFooterText     = "Best regards,<br>The {site_name} Team"
	defaultSubject        = "Your Verification Code - {site_name}"
)

// TemplateRenderer подставляет код и оформление в шаблон письма.
type TemplateRenderer struct {
	template string
	subject  string
	cfg      config.EmailConfig
}

// NewTemplateRenderer читает шаблон из email.template_path или берет встроенный.
func NewTemplateRenderer(cfg config.EmailConfig) (*TemplateRenderer, error) {
	tpl := defaultEmailTemplate
	if path := strings.TrimSpace(cfg.TemplatePath); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read email template %s: %w", path, err)
		}
		tpl = string(raw)
	}

	subject := cfg.Subject
	if strings.TrimSpace(subject) == "" {
		subject = defaultSubject
	}

	return &TemplateRenderer{template: tpl, subject: subject, cfg: cfg}, nil
}

// Render возвращает тему и HTML тело письма с кодом.
func (r *TemplateRenderer) Render(code string, expiryMinutes int) (subject, body string) {
	siteName := html.EscapeString(r.cfg.SiteName)

	// Тексты сами содержат {site_name}, поэтому подставляются первым проходом.
	texts := strings.NewReplacer(
		"{header_title}", defaultHeaderTitle,
		"{main_heading}", defaultMainHeading,
		"{intro_text}", defaultIntroText,
		"{code_label}", defaultCodeLabel,
		"{security_notice}", defaultSecurityNotice,
		"{footer_text}", defaultFooterText,
	)

	values := strings.NewReplacer(
		"{verification_code}", html.EscapeString(code),
		"{expiry_time}", strconv.Itoa(expiryMinutes),
		"{site_name}", siteName,
		"{site_url}", html.EscapeString(r.cfg.SiteURL),
		"{primary_color}", colorOr(r.cfg.PrimaryColor, "#667eea"),
		"{secondary_color}", colorOr(r.cfg.SecondaryColor, "#764ba2"),
		"{text_color}", colorOr(r.cfg.TextColor, "#333333"),
		"{background_color}", colorOr(r.cfg.BackgroundColor, "#f8f9fa"),
	)

	body = values.Replace(texts.Replace(r.template))
	subject = strings.ReplaceAll(r.subject, "{site_name}", r.cfg.SiteName)
	return subject, body
}

func colorOr(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return html.EscapeString(value)
}
