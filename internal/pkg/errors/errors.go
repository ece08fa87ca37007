package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrConflict используется для конфликтов состояния,
	// например при нарушении уникального индекса активной записи верификации.
	ErrConflict = errors.New("resource state conflict")

	// ErrStorage оборачивает ошибки хранилища (БД, Redis), которые нельзя показывать клиенту.
	ErrStorage = errors.New("storage failure")
)
