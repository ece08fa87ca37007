package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "admin-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, role string, exp time.Time) string {
	t.Helper()
	claims := AdminClaims{
		UserID: 1,
		Email:  "admin@shop.example",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewAdminTokenVerifier_RequiresSecret(t *testing.T) {
	_, err := NewAdminTokenVerifier("")
	assert.Error(t, err)
}

func TestAdminTokenVerifier_Verify(t *testing.T) {
	v, err := NewAdminTokenVerifier(testSecret)
	require.NoError(t, err)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:  "valid admin",
			token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), RoleAdmin, future),
		},
		{
			name:    "customer role",
			token:   signToken(t, jwt.SigningMethodHS256, []byte(testSecret), "customer", future),
			wantErr: ErrNotAdmin,
		},
		{
			name:    "expired",
			token:   signToken(t, jwt.SigningMethodHS256, []byte(testSecret), RoleAdmin, time.Now().Add(-time.Minute)),
			wantErr: ErrTokenInvalid,
		},
		{
			name:    "wrong secret",
			token:   signToken(t, jwt.SigningMethodHS256, []byte("other"), RoleAdmin, future),
			wantErr: ErrTokenInvalid,
		},
		{
			name:    "other hmac algorithm",
			token:   signToken(t, jwt.SigningMethodHS512, []byte(testSecret), RoleAdmin, future),
			wantErr: ErrTokenInvalid,
		},
		{
			name:    "garbage",
			token:   "not-a-jwt",
			wantErr: ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.Verify(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(1), claims.UserID)
			assert.Equal(t, RoleAdmin, claims.Role)
		})
	}
}
