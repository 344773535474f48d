// Package apperror defines the error kinds shared by every money-moving
// operation. Domain packages wrap these sentinels with context using %w so
// callers can classify failures with errors.Is.
package apperror

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrValidation            = errors.New("validation error")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrBudgetExceeded        = errors.New("budget exceeded")
	ErrInvalidTransferTarget = errors.New("invalid transfer target")
	ErrDuplicateRequest      = errors.New("duplicate request in progress")
	ErrUnitTimeout           = errors.New("unit of work timed out")
)

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrUnauthorized,
	ErrInsufficientFunds,
	ErrBudgetExceeded,
	ErrInvalidTransferTarget,
	ErrDuplicateRequest,
	ErrUnitTimeout,
}

// Kind returns the sentinel kind err wraps, or nil for infrastructure errors.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUnitTimeout
	}
	return nil
}

// IsBusiness reports whether err is one of the known rejection kinds.
func IsBusiness(err error) bool {
	return Kind(err) != nil
}

// HTTPStatus maps an error to the status code the HTTP layer responds with.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case ErrValidation, ErrInvalidTransferTarget:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrInsufficientFunds, ErrBudgetExceeded:
		return http.StatusUnprocessableEntity
	case ErrDuplicateRequest:
		return http.StatusConflict
	case ErrUnitTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine-readable code for API responses.
func Code(err error) string {
	switch Kind(err) {
	case ErrValidation:
		return "VALIDATION_ERROR"
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrUnauthorized:
		return "UNAUTHORIZED"
	case ErrInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case ErrBudgetExceeded:
		return "BUDGET_EXCEEDED"
	case ErrInvalidTransferTarget:
		return "INVALID_TRANSFER_TARGET"
	case ErrDuplicateRequest:
		return "DUPLICATE_REQUEST"
	case ErrUnitTimeout:
		return "TIMEOUT"
	default:
		return "INTERNAL_ERROR"
	}
}
