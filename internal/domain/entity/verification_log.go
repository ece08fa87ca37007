package entity

import "time"

// Действия журнала верификации
const (
	LogActionCodeSent        = "code_sent"
	LogActionCodeVerified    = "code_verified"
	LogActionCodeResent      = "code_resent"
	LogActionSendCodeError   = "send_code_error"
	LogActionVerifyCodeError = "verify_code_error"
	LogActionResendCodeError = "resend_code_error"
	LogActionEmailSent       = "email_sent"
	LogActionUserVerified    = "user_verified"
	LogActionEmailChanged    = "email_changed"
	LogActionBulkVerified    = "bulk_verified"
	LogActionBulkUnverified  = "bulk_unverified"
)

// VerificationLog: неизменяемая запись журнала аудита
type VerificationLog struct {
	ID        uint                   `gorm:"primaryKey" json:"id"`
	Email     string                 `gorm:"size:255;not null;default:'';index" json:"email"`
	Action    string                 `gorm:"size:50;not null;index" json:"action"`
	IPAddress string                 `gorm:"size:45;not null;default:''" json:"ip_address"`
	UserAgent string                 `gorm:"size:500;not null;default:''" json:"user_agent"`
	Metadata  map[string]interface{} `gorm:"type:text;serializer:json" json:"metadata,omitempty"`
	CreatedAt time.Time              `gorm:"not null;index" json:"created_at"`
}

func (VerificationLog) TableName() string {
	return "verification_logs"
}
