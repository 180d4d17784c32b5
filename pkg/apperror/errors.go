package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
// Code is a stable tag callers can branch on.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Stable error tags for the settlement core.
const (
	CodeNotAuthorized       = "NOT_AUTHORIZED"
	CodeInvalidState        = "INVALID_STATE"
	CodeInvoiceNotFound     = "INVOICE_NOT_FOUND"
	CodePaymentMismatch     = "PAYMENT_MISMATCH"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInvalidRecipient    = "INVALID_RECIPIENT"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeFeeTooHigh          = "FEE_TOO_HIGH"
	CodeNotWhitelisted      = "NOT_WHITELISTED"
	CodeModuleUnavailable   = "MODULE_UNAVAILABLE"
	CodeSystemPaused        = "SYSTEM_PAUSED"
)

// ---- Settlement core (LEDG) ----

func ErrNotAuthorized(what string) *AppError {
	return New(CodeNotAuthorized, fmt.Sprintf("caller is not authorized: %s", what), http.StatusForbidden)
}

func ErrInvalidState(detail string) *AppError {
	return New(CodeInvalidState, detail, http.StatusConflict)
}

func ErrInvoiceNotFound(id string) *AppError {
	return New(CodeInvoiceNotFound, fmt.Sprintf("invoice %s not found", id), http.StatusNotFound)
}

func ErrPaymentMismatch() *AppError {
	return New(CodePaymentMismatch, "asset and amount do not match any payment option", http.StatusUnprocessableEntity)
}

func ErrInsufficientBalance() *AppError {
	return New(CodeInsufficientBalance, "insufficient balance", http.StatusPaymentRequired)
}

func ErrInvalidRecipient() *AppError {
	return New(CodeInvalidRecipient, "recipient must be a non-zero account", http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "amount must be greater than zero", http.StatusBadRequest)
}

func ErrFeeTooHigh(bps int64) *AppError {
	return New(CodeFeeTooHigh, fmt.Sprintf("fee of %d bps exceeds the maximum", bps), http.StatusBadRequest)
}

func ErrNotWhitelisted(what string) *AppError {
	return New(CodeNotWhitelisted, fmt.Sprintf("%s is not whitelisted", what), http.StatusForbidden)
}

func ErrModuleUnavailable(module string) *AppError {
	return New(CodeModuleUnavailable, fmt.Sprintf("required module %s is unavailable", module), http.StatusServiceUnavailable)
}

func ErrSystemPaused() *AppError {
	return New(CodeSystemPaused, "the settlement core is paused", http.StatusServiceUnavailable)
}

// ---- Security & Authentication (SEC) ----

func ErrInvalidAccessKey() *AppError {
	return New("SEC_001", "Invalid access key", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_002", "Invalid signature", http.StatusUnauthorized)
}

func ErrTimestampExpired() *AppError {
	return New("SEC_003", "Request timestamp expired", http.StatusForbidden)
}

func ErrNonceUsed() *AppError {
	return New("SEC_004", "Nonce has already been used", http.StatusForbidden)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrAccountSuspended() *AppError {
	return New("AUTH_004", "Account is suspended", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// IsCode reports whether err is (or wraps) an AppError carrying the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
