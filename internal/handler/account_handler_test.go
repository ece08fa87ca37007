package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/middleware"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
	"github.com/yourusername/verification-api/internal/service"
)

func newAccountRouter(svc AccountService) *gin.Engine {
	h := NewAccountHandler(svc, zap.NewNop())
	r := gin.New()
	r.Use(middleware.Session(middleware.SessionConfig{CookieName: "ev_session"}))
	r.POST("/accounts/register", h.Register)
	r.POST("/accounts/login-check", h.LoginCheck)
	r.GET("/admin/accounts", h.List)
	r.POST("/admin/accounts/bulk-verify", h.BulkVerify)
	r.POST("/admin/accounts/bulk-unverify", h.BulkUnverify)
	r.PUT("/admin/accounts/email", h.ChangeEmail)
	r.DELETE("/admin/accounts/:email", h.Delete)
	return r
}

func TestAccountHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Register", mock.Anything, "user@example.com", metaWithSession).
			Return(&entity.Account{ID: 3, Email: "user@example.com", EmailVerified: true}, nil)

		w := performJSON(newAccountRouter(svc), http.MethodPost, "/accounts/register", `{"email":"user@example.com"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		account := decodeBody(t, w)["account"].(map[string]interface{})
		assert.Equal(t, true, account["email_verified"])
	})

	t.Run("not verified", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Register", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrEmailNotVerified)

		w := performJSON(newAccountRouter(svc), http.MethodPost, "/accounts/register", `{"email":"user@example.com"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "email_not_verified", decodeBody(t, w)["error_type"])
	})

	t.Run("already exists", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Register", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperrors.ErrConflict)

		w := performJSON(newAccountRouter(svc), http.MethodPost, "/accounts/register", `{"email":"user@example.com"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAccountHandler_LoginCheck(t *testing.T) {
	svc := new(MockAccountService)
	svc.On("CanLogin", mock.Anything, "new@example.com").Return(service.ErrLoginNotVerified)
	svc.On("CanLogin", mock.Anything, "ok@example.com").Return(nil)
	r := newAccountRouter(svc)

	w := performJSON(r, http.MethodPost, "/accounts/login-check", `{"email":"new@example.com"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "has not been verified")

	w = performJSON(r, http.MethodPost, "/accounts/login-check", `{"email":"ok@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccountHandler_List(t *testing.T) {
	svc := new(MockAccountService)
	svc.On("List", mock.Anything, "unverified", 50, 100).
		Return(&service.AccountPage{Accounts: []entity.Account{{ID: 1}}, Total: 101, Limit: 50, Offset: 100}, nil)
	svc.On("List", mock.Anything, "weird", 20, 0).
		Return(nil, service.ErrInvalidInput)
	r := newAccountRouter(svc)

	w := performJSON(r, http.MethodGet, "/admin/accounts?status=unverified&limit=50&offset=100", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(101), decodeBody(t, w)["total"])

	w = performJSON(r, http.MethodGet, "/admin/accounts?status=weird", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandler_Bulk(t *testing.T) {
	svc := new(MockAccountService)
	svc.On("BulkSetVerified", mock.Anything, []uint{1, 2, 3}, true, mock.Anything).Return(2, nil)
	svc.On("BulkSetVerified", mock.Anything, []uint{4}, false, mock.Anything).Return(1, nil)
	r := newAccountRouter(svc)

	w := performJSON(r, http.MethodPost, "/admin/accounts/bulk-verify", `{"ids":[1,2,3]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"2 user(s) marked as verified.","updated":2}`, w.Body.String())

	w = performJSON(r, http.MethodPost, "/admin/accounts/bulk-unverify", `{"ids":[4]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marked as unverified")

	w = performJSON(r, http.MethodPost, "/admin/accounts/bulk-verify", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandler_ChangeEmail_DoesNotUseAdminSession(t *testing.T) {
	svc := new(MockAccountService)
	svc.On("ChangeEmail", mock.Anything, "old@example.com", "new@example.com",
		mock.MatchedBy(func(meta service.RequestMeta) bool { return meta.SessionID == "" })).Return(nil)

	w := performJSON(newAccountRouter(svc), http.MethodPut, "/admin/accounts/email",
		`{"old_email":"old@example.com","new_email":"new@example.com"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAccountHandler_Delete(t *testing.T) {
	svc := new(MockAccountService)
	svc.On("DeleteAccount", mock.Anything, "user@example.com", "").Return(nil)
	svc.On("DeleteAccount", mock.Anything, "ghost@example.com", "").Return(apperrors.ErrNotFound)
	r := newAccountRouter(svc)

	w := performJSON(r, http.MethodDelete, "/admin/accounts/user@example.com", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performJSON(r, http.MethodDelete, "/admin/accounts/ghost@example.com", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
