package service

import (
	"errors"
	"fmt"
)

// Ошибки верификации. Текст ошибки - стабильный error_type для handler-ов.
var (
	ErrInvalidInput          = errors.New("invalid_input")
	ErrSecurityCheckFailed   = errors.New("security_check_failed")
	ErrAlreadyVerified       = errors.New("already_verified")
	ErrRateLimited           = errors.New("rate_limited")
	ErrInvalidOrExpiredCode  = errors.New("invalid_or_expired_code")
	ErrNoPendingVerification = errors.New("no_pending_verification")
	ErrDeliveryFailed        = errors.New("delivery_failed")
	ErrStorage               = errors.New("storage_error")
	ErrPermissionDenied      = errors.New("permission_denied")
	ErrVerificationDisabled  = errors.New("verification_disabled")
	ErrConcurrentRequest     = errors.New("concurrent_request")
	ErrEmailNotVerified      = errors.New("email_not_verified")
)

// Уточнения, влияющие только на текст для пользователя
var (
	ErrInvalidEmail        = fmt.Errorf("%w: email", ErrInvalidInput)
	ErrInvalidCredentials  = fmt.Errorf("%w: email or code", ErrInvalidInput)
	ErrResendRateLimited   = fmt.Errorf("%w: resend", ErrRateLimited)
	ErrTestDeliveryFailed  = fmt.Errorf("%w: test email", ErrDeliveryFailed)
	ErrCheckoutNotVerified = fmt.Errorf("%w: checkout", ErrEmailNotVerified)
	ErrLoginNotVerified    = fmt.Errorf("%w: login", ErrEmailNotVerified)
)

// ErrorKind возвращает error_type для известной ошибки или пустую строку.
func ErrorKind(err error) string {
	for _, known := range []error{
		ErrInvalidInput,
		ErrSecurityCheckFailed,
		ErrAlreadyVerified,
		ErrRateLimited,
		ErrInvalidOrExpiredCode,
		ErrNoPendingVerification,
		ErrDeliveryFailed,
		ErrStorage,
		ErrPermissionDenied,
		ErrVerificationDisabled,
		ErrConcurrentRequest,
		ErrEmailNotVerified,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ""
}

// IsInfrastructure: ошибки, детали которых не показываются клиенту
func IsInfrastructure(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrDeliveryFailed)
}

const genericErrorMessage = "Something went wrong. Please try again later."

// UserMessage: короткий текст ошибки для показа в интерфейсе.
// Для инфраструктурных ошибок детали не раскрываются.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or verification code."
	case errors.Is(err, ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, ErrInvalidInput):
		return "Invalid request."
	case errors.Is(err, ErrSecurityCheckFailed):
		return "Security check failed."
	case errors.Is(err, ErrAlreadyVerified):
		return "This email address has already been verified."
	case errors.Is(err, ErrResendRateLimited):
		return "Too many resend attempts. Please try again later."
	case errors.Is(err, ErrRateLimited):
		return "Too many verification attempts. Please try again later."
	case errors.Is(err, ErrInvalidOrExpiredCode):
		return "Invalid or expired verification code."
	case errors.Is(err, ErrNoPendingVerification):
		return "No pending verification found for this email."
	case errors.Is(err, ErrTestDeliveryFailed):
		return "Failed to send test email."
	case errors.Is(err, ErrDeliveryFailed):
		return "Failed to send email. Please try again."
	case errors.Is(err, ErrPermissionDenied):
		return "Permission denied."
	case errors.Is(err, ErrVerificationDisabled):
		return "Email verification is disabled."
	case errors.Is(err, ErrConcurrentRequest):
		return "Another verification request is in progress. Please try again."
	case errors.Is(err, ErrCheckoutNotVerified):
		return "Please verify your email address before placing your order."
	case errors.Is(err, ErrLoginNotVerified):
		return "Your email address has not been verified. Please check your inbox for the verification email or contact support."
	case errors.Is(err, ErrEmailNotVerified):
		return "Please verify your email address before proceeding."
	default:
		return genericErrorMessage
	}
}
