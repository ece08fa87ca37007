package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindAndMessage(t *testing.T) {
	tests := []struct {
		err     error
		kind    string
		message string
		infra   bool
	}{
		{ErrInvalidEmail, "invalid_input", "Please enter a valid email address.", false},
		{ErrInvalidCredentials, "invalid_input", "Invalid email or verification code.", false},
		{ErrAlreadyVerified, "already_verified", "This email address has already been verified.", false},
		{ErrRateLimited, "rate_limited", "Too many verification attempts. Please try again later.", false},
		{ErrResendRateLimited, "rate_limited", "Too many resend attempts. Please try again later.", false},
		{fmt.Errorf("%w: lookup", ErrInvalidOrExpiredCode), "invalid_or_expired_code", "Invalid or expired verification code.", false},
		{ErrNoPendingVerification, "no_pending_verification", "No pending verification found for this email.", false},
		{fmt.Errorf("%w: smtp timeout", ErrDeliveryFailed), "delivery_failed", "Failed to send email. Please try again.", true},
		{fmt.Errorf("%w: connection reset", ErrStorage), "storage_error", genericErrorMessage, true},
		{ErrCheckoutNotVerified, "email_not_verified", "Please verify your email address before placing your order.", false},
		{ErrEmailNotVerified, "email_not_verified", "Please verify your email address before proceeding.", false},
		{errors.New("boom"), "", genericErrorMessage, false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.kind, ErrorKind(tt.err))
			assert.Equal(t, tt.message, UserMessage(tt.err))
			assert.Equal(t, tt.infra, IsInfrastructure(tt.err))
		})
	}
}

func TestUserMessage_StorageDetailsHidden(t *testing.T) {
	err := fmt.Errorf("%w: pq: password authentication failed for user \"shop\"", ErrStorage)
	assert.NotContains(t, UserMessage(err), "password")
}
