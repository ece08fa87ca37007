package dto

// EmailRequest: тело запросов send/resend/status/checkout/register/login-check
type EmailRequest struct {
	Email string `json:"email"`
}

// VerifyRequest: тело запроса verify
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ChangeEmailRequest: смена email аккаунта администратором
type ChangeEmailRequest struct {
	OldEmail string `json:"old_email" binding:"required"`
	NewEmail string `json:"new_email" binding:"required"`
}

// BulkAccountsRequest: массовое изменение статуса подтверждения
type BulkAccountsRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1,max=500"`
}

// MessageResponse: ответ с текстом для пользователя
type MessageResponse struct {
	Message string `json:"message"`
}

// SendCodeResponse: ответ send/resend
type SendCodeResponse struct {
	Message       string `json:"message"`
	ExpiryMinutes int    `json:"expiry_minutes"`
}

// BulkAccountsResponse: количество измененных аккаунтов
type BulkAccountsResponse struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
}
