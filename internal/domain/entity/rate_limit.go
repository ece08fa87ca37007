package entity

import "time"

// RateLimitAction: действие, для которого ведется отдельный счетчик попыток
type RateLimitAction string

const (
	RateLimitActionSend   RateLimitAction = "send_code"
	RateLimitActionVerify RateLimitAction = "verify_code"
	RateLimitActionResend RateLimitAction = "resend_code"
)

// RateLimit: счетчик попыток в фиксированном окне, одна строка на (identifier, action)
type RateLimit struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Identifier  string          `gorm:"size:320;not null;uniqueIndex:ux_verification_rate_limits_key" json:"identifier"`
	Action      RateLimitAction `gorm:"size:32;not null;uniqueIndex:ux_verification_rate_limits_key" json:"action"`
	Attempts    int             `gorm:"not null;default:1" json:"attempts"`
	LastAttempt time.Time       `gorm:"not null;index" json:"last_attempt"`
}

func (RateLimit) TableName() string {
	return "verification_rate_limits"
}
