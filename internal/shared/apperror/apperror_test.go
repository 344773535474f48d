package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"plain", errors.New("db down"), nil},
		{"wrapped validation", fmt.Errorf("%w: amount must be positive", ErrValidation), ErrValidation},
		{"double wrapped funds", fmt.Errorf("record: %w", fmt.Errorf("%w: balance 10", ErrInsufficientFunds)), ErrInsufficientFunds},
		{"deadline", fmt.Errorf("failed to lock: %w", context.DeadlineExceeded), ErrUnitTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidTransferTarget, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{ErrBudgetExceeded, http.StatusUnprocessableEntity},
		{ErrDuplicateRequest, http.StatusConflict},
		{ErrUnitTimeout, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "BUDGET_EXCEEDED", Code(ErrBudgetExceeded))
	assert.Equal(t, "INTERNAL_ERROR", Code(errors.New("boom")))
	assert.True(t, IsBusiness(ErrNotFound))
	assert.False(t, IsBusiness(errors.New("boom")))
}
