package entity

import "time"

// VerificationRecord: выданный код подтверждения для email.
// Код хранится только в виде HMAC-хеша.
// Частичный уникальный индекс допускает не более одной неподтвержденной записи на email.
type VerificationRecord struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Email      string     `gorm:"size:255;not null;uniqueIndex:ux_verification_records_active_email,where:verified = false" json:"email"`
	CodeHash   string     `gorm:"size:64;not null" json:"-"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	Verified   bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	Attempts   int        `gorm:"not null;default:0" json:"attempts"`
	SourceIP   string     `gorm:"size:45;not null;default:''" json:"source_ip"`
	UserAgent  string     `gorm:"size:500;not null;default:''" json:"user_agent"`
}

func (VerificationRecord) TableName() string {
	return "verification_records"
}

func (r *VerificationRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// IsActive: запись не подтверждена и не истекла
func (r *VerificationRecord) IsActive(now time.Time) bool {
	return !r.Verified && !r.IsExpired(now)
}
