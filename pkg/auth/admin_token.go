package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// RoleAdmin: значение claim role, открывающее админские маршруты
const RoleAdmin = "admin"

var (
	ErrTokenInvalid = errors.New("token is invalid or expired")
	ErrNotAdmin     = errors.New("token does not grant admin role")
)

// AdminClaims содержит поля bearer-токена администратора
type AdminClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AdminTokenVerifier проверяет токены, выпущенные внешней системой учетных записей.
// Сервис сам токены не выдает, только проверяет подпись HS256.
type AdminTokenVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewAdminTokenVerifier(secret string) (*AdminTokenVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("admin JWT secret is required")
	}
	return &AdminTokenVerifier{secret: []byte(secret), now: time.Now}, nil
}

// Verify разбирает токен. ErrTokenInvalid - подпись/срок/формат, ErrNotAdmin - роль не admin.
func (v *AdminTokenVerifier) Verify(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}

	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(v.now()) {
		return nil, fmt.Errorf("%w: missing or past exp", ErrTokenInvalid)
	}
	if claims.Role != RoleAdmin {
		return claims, ErrNotAdmin
	}
	return claims, nil
}
