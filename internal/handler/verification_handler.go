package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/handler/dto"
	"github.com/yourusername/verification-api/internal/middleware"
	"github.com/yourusername/verification-api/internal/service"
)

// VerificationService: операции жизненного цикла кода, нужные обработчику
type VerificationService interface {
	Send(ctx context.Context, email string, meta service.RequestMeta) (*service.SendResult, error)
	Verify(ctx context.Context, email, code string, meta service.RequestMeta) (string, error)
	Resend(ctx context.Context, email string, meta service.RequestMeta) (*service.SendResult, error)
	CheckStatus(ctx context.Context, email, sessionID string) (*service.StatusResult, error)
	ValidateCheckout(ctx context.Context, sessionID, email string) error
}

// VerificationHandler обрабатывает публичные запросы верификации email
type VerificationHandler struct {
	verification VerificationService
	csrfSecret   string
	log          *zap.Logger
}

func NewVerificationHandler(verification VerificationService, csrfSecret string, log *zap.Logger) *VerificationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &VerificationHandler{
		verification: verification,
		csrfSecret:   csrfSecret,
		log:          log.Named("verification_handler"),
	}
}

// requestMeta собирает данные клиента для лимитера и журнала
func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		SessionID: middleware.SessionID(c),
	}
}

// CSRFToken выдает токен для текущей сессии
// GET /api/v1/verification/csrf-token
func (h *VerificationHandler) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": middleware.CSRFToken(h.csrfSecret, middleware.SessionID(c))})
}

// SendCode POST /api/v1/verification/send
func (h *VerificationHandler) SendCode(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := h.verification.Send(c.Request.Context(), req.Email, requestMeta(c))
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.SendCodeResponse{Message: res.Message, ExpiryMinutes: res.ExpiryMinutes})
}

// VerifyCode POST /api/v1/verification/verify
func (h *VerificationHandler) VerifyCode(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	msg, err := h.verification.Verify(c.Request.Context(), req.Email, req.Code, requestMeta(c))
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msg})
}

// ResendCode POST /api/v1/verification/resend
func (h *VerificationHandler) ResendCode(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := h.verification.Resend(c.Request.Context(), req.Email, requestMeta(c))
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.SendCodeResponse{Message: res.Message, ExpiryMinutes: res.ExpiryMinutes})
}

// Status POST /api/v1/verification/status
func (h *VerificationHandler) Status(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := h.verification.CheckStatus(c.Request.Context(), req.Email, middleware.SessionID(c))
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ValidateCheckout POST /api/v1/checkout/validate
func (h *VerificationHandler) ValidateCheckout(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	if err := h.verification.ValidateCheckout(c.Request.Context(), middleware.SessionID(c), req.Email); err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Email verified."})
}
