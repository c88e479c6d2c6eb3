package apperrors

import (
	"net/http"
)

// =========================================================================
// Фабрики
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404).
// Используется, когда ошибка репозитория должна стать AppError.
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrExternalService - сбой внешнего сервиса (LLM, платёжный провайдер, хранилище)
func ErrExternalService(err error, domain, message string) *AppError {
	return Wrap(err, CodeExternalServiceError, domain, message, http.StatusBadGateway)
}

// =========================================================================
// Auth
// =========================================================================

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already registered",
	http.StatusBadRequest,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid token",
	http.StatusUnauthorized,
)

var ErrTokenExpired = New(
	CodeTokenExpired,
	"auth",
	"Token has expired",
	http.StatusUnauthorized,
)

// ErrUserNotFound - токен валиден, но пользователя уже нет
var ErrUserNotFound = New(
	CodeUnauthorized,
	"auth",
	"User not found",
	http.StatusUnauthorized,
)

// =========================================================================
// Кредиты
// =========================================================================

// ErrInsufficientCredits - на балансе нет кредитов для анализа.
var ErrInsufficientCredits = New(
	CodeInsufficientCredits,
	"credits",
	"No credits available. Please purchase a report package.",
	http.StatusForbidden,
)

// =========================================================================
// Объекты
// =========================================================================

var ErrPropertyNotFound = New(
	CodeNotFound,
	"property",
	"Property not found",
	http.StatusNotFound,
)

var ErrAnalysisNotFound = New(
	CodeNotFound,
	"analysis",
	"Analysis not found",
	http.StatusNotFound,
)

// ErrReportNotReady - PDF ещё не сгенерирован (или анализ упал)
var ErrReportNotReady = New(
	CodeInvalidStatus,
	"analysis",
	"PDF not available",
	http.StatusNotFound,
)

var ErrInvalidFileType = New(
	CodeValidationFailed,
	"validation",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

// =========================================================================
// Платежи
// =========================================================================

var ErrTransactionNotFound = New(
	CodeNotFound,
	"payment",
	"Transaction not found",
	http.StatusNotFound,
)

var ErrUnknownPackage = New(
	CodeUnknownPackage,
	"payment",
	"Invalid package",
	http.StatusBadRequest,
)

var ErrInvalidSignature = New(
	CodeInvalidSignature,
	"payment",
	"Invalid webhook signature",
	http.StatusBadRequest,
)

var ErrMalformedPayload = New(
	CodeMalformedPayload,
	"payment",
	"Malformed webhook payload",
	http.StatusBadRequest,
)
