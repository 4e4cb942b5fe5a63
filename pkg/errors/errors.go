package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by every storefront component.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrConflict             = errors.New("conflict")
	ErrInternal             = errors.New("internal error")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrOutOfRange           = errors.New("index out of range")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrRateLimited          = errors.New("rate limited")
)

// AppError is a structured error carrying the code and HTTP status surfaced
// to the storefront front end.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// EmptyCart is returned when checkout or order assembly runs on a cart
// without items.
func EmptyCart() *AppError {
	return &AppError{
		Code:    "EMPTY_CART",
		Message: "the cart is empty",
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrEmptyCart,
	}
}

// CapacityExceeded is returned when a quantity change would go past the
// per-item maximum.
func CapacityExceeded(max int) *AppError {
	return &AppError{
		Code:    "CAPACITY_EXCEEDED",
		Message: fmt.Sprintf("maximum quantity is %d", max),
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrCapacityExceeded,
	}
}

// OutOfRange is returned when a line item index does not exist.
func OutOfRange(index, length int) *AppError {
	return &AppError{
		Code:    "OUT_OF_RANGE",
		Message: fmt.Sprintf("item index %d out of range [0,%d)", index, length),
		Status:  http.StatusNotFound,
		Err:     ErrOutOfRange,
	}
}

// ConfirmationRequired is returned by destructive operations the caller did
// not explicitly confirm.
func ConfirmationRequired(message string) *AppError {
	return &AppError{
		Code:    "CONFIRMATION_REQUIRED",
		Message: message,
		Status:  http.StatusPreconditionRequired,
		Err:     ErrConfirmationRequired,
	}
}

// RateLimited creates a 429 error.
func RateLimited() *AppError {
	return &AppError{
		Code:    "RATE_LIMITED",
		Message: "too many requests, slow down",
		Status:  http.StatusTooManyRequests,
		Err:     ErrRateLimited,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsValidation reports whether err is a locally recoverable rejection:
// the operation did not proceed and state is unchanged.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrConfirmationRequired)
}
