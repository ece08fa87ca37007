package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/handler/dto"
	"github.com/yourusername/verification-api/internal/service"
)

const defaultExportDays = 30

// AdminService: операции панели администратора
type AdminService interface {
	SendTest(ctx context.Context, email string, meta service.RequestMeta) (string, error)
	Stats(ctx context.Context) (*service.VerificationReport, error)
	RecentLogs(ctx context.Context, limit int) ([]entity.VerificationLog, error)
	ExportLogs(ctx context.Context, since time.Time) ([]entity.VerificationLog, error)
	DefaultTemplate() string
	Settings() service.VerificationSettings
}

// AdminHandler обрабатывает запросы панели администратора
type AdminHandler struct {
	admin AdminService
	log   *zap.Logger
	now   func() time.Time
}

func NewAdminHandler(admin AdminService, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{admin: admin, log: log.Named("admin_handler"), now: time.Now}
}

// SendTest POST /api/v1/admin/verification/send-test
func (h *AdminHandler) SendTest(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	msg, err := h.admin.SendTest(c.Request.Context(), req.Email, requestMeta(c))
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msg})
}

// Stats GET /api/v1/admin/verification/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	report, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Logs GET /api/v1/admin/verification/logs?limit=20
func (h *AdminHandler) Logs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	logs, err := h.admin.RecentLogs(c.Request.Context(), limit)
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// DefaultTemplate GET /api/v1/admin/verification/template/default
func (h *AdminHandler) DefaultTemplate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"template": h.admin.DefaultTemplate()})
}

// Settings GET /api/v1/admin/verification/settings
func (h *AdminHandler) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.Settings())
}

// ExportLogs выгружает журнал в Excel или CSV
// GET /api/v1/admin/verification/logs/export?format=xlsx|csv&days=30
func (h *AdminHandler) ExportLogs(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(defaultExportDays)))
	if err != nil || days < 1 {
		badRequest(c)
		return
	}
	now := h.now()
	since := now.AddDate(0, 0, -days)

	logs, err := h.admin.ExportLogs(c.Request.Context(), since)
	if err != nil {
		handleVerificationError(c, h.log, err)
		return
	}

	filename := fmt.Sprintf("verification_logs_%s", now.Format("2006-01-02"))
	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		h.exportCSV(c, logs, filename)
	default:
		h.exportXLSX(c, logs, filename)
	}
}

var logExportHeaders = []string{"ID", "Date", "Email", "Action", "IP Address", "User Agent", "Details"}

func logExportRow(l entity.VerificationLog) []string {
	return []string{
		strconv.FormatUint(uint64(l.ID), 10),
		l.CreatedAt.UTC().Format(time.RFC3339),
		sanitizeForExcel(l.Email),
		l.Action,
		sanitizeForExcel(l.IPAddress),
		sanitizeForExcel(l.UserAgent),
		sanitizeForExcel(metadataString(l.Metadata)),
	}
}

func metadataString(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// exportCSV экспортирует журнал в CSV с правильным экранированием спецсимволов
func (h *AdminHandler) exportCSV(c *gin.Context, logs []entity.VerificationLog, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(logExportHeaders)
	for _, l := range logs {
		writer.Write(logExportRow(l))
	}
}

// exportXLSX экспортирует журнал в Excel через StreamWriter
func (h *AdminHandler) exportXLSX(c *gin.Context, logs []entity.VerificationLog, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Verification Logs"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		h.log.Error("Ошибка создания StreamWriter", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file", "error_type": service.ErrStorage.Error()})
		return
	}

	headers := make([]interface{}, len(logExportHeaders))
	for i, v := range logExportHeaders {
		headers[i] = v
	}
	if err := sw.SetRow("A1", headers); err != nil {
		h.log.Warn("Ошибка записи заголовков", zap.Error(err))
	}

	for i, l := range logs {
		rowNum := i + 2 // 1 - заголовки
		values := logExportRow(l)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		row[0] = l.ID
		if err := sw.SetRow(fmt.Sprintf("A%d", rowNum), row); err != nil {
			h.log.Warn("Ошибка записи строки", zap.Int("row", rowNum), zap.Error(err))
		}
	}

	if err := sw.Flush(); err != nil {
		h.log.Error("Ошибка при Flush", zap.Error(err))
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		h.log.Error("Ошибка записи Excel в response", zap.Error(err))
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
