package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
	"github.com/yourusername/verification-api/internal/service"
)

// verificationStatus: HTTP статус для error_type
var verificationStatus = map[error]int{
	service.ErrInvalidInput:          http.StatusBadRequest,
	service.ErrSecurityCheckFailed:   http.StatusForbidden,
	service.ErrAlreadyVerified:       http.StatusConflict,
	service.ErrRateLimited:           http.StatusTooManyRequests,
	service.ErrInvalidOrExpiredCode:  http.StatusBadRequest,
	service.ErrNoPendingVerification: http.StatusNotFound,
	service.ErrDeliveryFailed:        http.StatusBadGateway,
	service.ErrStorage:               http.StatusInternalServerError,
	service.ErrPermissionDenied:      http.StatusForbidden,
	service.ErrVerificationDisabled:  http.StatusForbidden,
	service.ErrConcurrentRequest:     http.StatusConflict,
	service.ErrEmailNotVerified:      http.StatusForbidden,
}

// handleVerificationError отвечает {error, error_type}. Детали инфраструктурных ошибок
// остаются только в логе.
func handleVerificationError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found.", "error_type": "not_found"})
		return
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists.", "error_type": "conflict"})
		return
	}

	kind := service.ErrorKind(err)
	if kind == "" {
		log.Error("unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again later.", "error_type": service.ErrStorage.Error()})
		return
	}

	status := http.StatusInternalServerError
	for sentinel, code := range verificationStatus {
		if errors.Is(err, sentinel) {
			status = code
			break
		}
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.String("error_type", kind), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": service.UserMessage(err), "error_type": kind})
}

// badRequest: тело запроса не разобрано
func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request.", "error_type": service.ErrInvalidInput.Error()})
}
