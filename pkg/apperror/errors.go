package apperror

import (
	"errors"
	"net/http"

	"github.com/sangkips/kitchen-pos/pkg/printer"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Kind    string       `json:"kind,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Err     error        `json:"-"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches errors carrying the same Kind, so errors.Is(err,
// ErrOrderCreationFailed) holds for every wrapped creation failure.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Kind == "" {
		return false
	}
	return t.Kind == e.Kind
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden      = &AppError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrConflict       = &AppError{Code: http.StatusConflict, Message: "Resource already exists"}
	ErrUnprocessable  = &AppError{Code: http.StatusUnprocessableEntity, Message: "Unprocessable entity"}
	ErrTokenExpired   = &AppError{Code: http.StatusUnauthorized, Message: "Token has expired"}
	ErrInvalidToken   = &AppError{Code: http.StatusUnauthorized, Message: "Invalid token"}

	// ErrOrderCreationFailed means the order was not saved, so nothing was
	// printed and the current order must stay on screen for a retry.
	ErrOrderCreationFailed = &AppError{
		Code:    http.StatusInternalServerError,
		Message: "Order could not be saved",
		Kind:    "order_creation_failed",
	}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// NewOrderCreationError wraps a persistence failure during checkout.
func NewOrderCreationError(err error) *AppError {
	return &AppError{
		Code:    ErrOrderCreationFailed.Code,
		Message: ErrOrderCreationFailed.Message,
		Kind:    ErrOrderCreationFailed.Kind,
		Err:     err,
	}
}

// NewPrinterError maps a device error onto an HTTP status, keeping the
// printer error kind and its user guidance.
func NewPrinterError(err error) *AppError {
	kind := printer.KindOf(err)
	code := http.StatusInternalServerError
	switch kind {
	case printer.KindCapabilityUnsupported:
		code = http.StatusNotImplemented
	case printer.KindNoDeviceAuthorized:
		code = http.StatusNotFound
	case printer.KindSelectionCancelled:
		code = http.StatusConflict
	case printer.KindNoOutputChannel:
		code = http.StatusUnprocessableEntity
	case printer.KindDeviceBusy:
		code = http.StatusServiceUnavailable
	case printer.KindTransferFailed:
		code = http.StatusBadGateway
	case printer.KindDeviceTimeout:
		code = http.StatusGatewayTimeout
	}
	return &AppError{
		Code:    code,
		Message: printer.UserMessage(kind),
		Kind:    string(kind),
		Err:     err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
