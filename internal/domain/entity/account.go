package entity

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Роли аккаунта
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Account: учетная запись покупателя, к которой привязан флаг подтвержденного email
type Account struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Email           string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Role            string     `gorm:"size:20;not null;default:'customer'" json:"role"`
	EmailVerified   bool       `gorm:"not null;default:false;index" json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// BeforeSave нормализует email перед записью
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.Email = NormalizeEmail(a.Email)
	if a.Role == "" {
		a.Role = RoleCustomer
	}
	return nil
}

// IsAdmin: администраторы не проходят проверку подтверждения email
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// NormalizeEmail приводит адрес к каноническому виду: без пробелов, в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
