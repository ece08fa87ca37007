package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/handler/dto"
	"github.com/yourusername/verification-api/internal/service"
)

// AccountService: операции с аккаунтами, завязанные на подтверждение email
type AccountService interface {
	Register(ctx context.Context, email string, meta service.RequestMeta) (*entity.Account, error)
	CanLogin(ctx context.Context, email string) error
	DeleteAccount(ctx context.Context, email, sessionID string) error
	ChangeEmail(ctx context.Context, oldEmail, newEmail string, meta service.RequestMeta) error
	BulkSetVerified(ctx context.Context, ids []uint, verified bool, meta service.RequestMeta) (int, error)
	List(ctx context.Context, filter string, limit, offset int) (*service.AccountPage, error)
}

// AccountHandler обрабатывает регистрацию, проверку входа и админские операции с аккаунтами
type AccountHandler struct {
	accounts AccountService
	log      *zap.Logger
}

func NewAccountHandler(accounts AccountService, log *zap.Logger) *AccountHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountHandler{accounts: accounts, log: log.Named("account_handler")}
}

// Register POST /api/v1/accounts/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), req.Email, requestMeta(c))
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// LoginCheck POST /api/v1/accounts/login-check
func (h *AccountHandler) LoginCheck(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	if err := h.accounts.CanLogin(c.Request.Context(), req.Email); err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Login allowed."})
}

// List GET /api/v1/admin/accounts?status=verified|unverified&limit=&offset=
func (h *AccountHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.accounts.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// BulkVerify POST /api/v1/admin/accounts/bulk-verify
func (h *AccountHandler) BulkVerify(c *gin.Context) {
	h.bulkSet(c, true)
}

// BulkUnverify POST /api/v1/admin/accounts/bulk-unverify
func (h *AccountHandler) BulkUnverify(c *gin.Context) {
	h.bulkSet(c, false)
}

func (h *AccountHandler) bulkSet(c *gin.Context, verified bool) {
	var req dto.BulkAccountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	updated, err := h.accounts.BulkSetVerified(c.Request.Context(), req.IDs, verified, requestMeta(c))
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}

	state := "verified"
	if !verified {
		state = "unverified"
	}
	c.JSON(http.StatusOK, dto.BulkAccountsResponse{
		Message: fmt.Sprintf("%d user(s) marked as %s.", updated, state),
		Updated: updated,
	})
}

// ChangeEmail PUT /api/v1/admin/accounts/email
func (h *AccountHandler) ChangeEmail(c *gin.Context) {
	var req dto.ChangeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	// Сессия администратора не должна получить флаг подтверждения нового адреса
	meta := requestMeta(c)
	meta.SessionID = ""
	if err := h.accounts.ChangeEmail(c.Request.Context(), req.OldEmail, req.NewEmail, meta); err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Email updated."})
}

// Delete DELETE /api/v1/admin/accounts/:email
func (h *AccountHandler) Delete(c *gin.Context) {
	// Сессию покупателя администратор не знает: флаг в ней истечет по TTL
	if err := h.accounts.DeleteAccount(c.Request.Context(), c.Param("email"), ""); err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
