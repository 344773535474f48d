package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/shared/apperror"
)

// Type is the direction of a record relative to its account.
type Type string

const (
	TypeDebit  Type = "debit"
	TypeCredit Type = "credit"
)

// Domain errors
var (
	ErrRecordNotFound  = fmt.Errorf("transaction %w", apperror.ErrNotFound)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be greater than zero", apperror.ErrValidation)
	ErrInvalidType     = fmt.Errorf("%w: type must be debit or credit", apperror.ErrValidation)
	ErrAlreadyReversed = fmt.Errorf("%w: transaction has already been reversed", apperror.ErrValidation)
	ErrReverseReversal = fmt.Errorf("%w: a reversal cannot itself be reversed", apperror.ErrValidation)
)

// ParseType normalizes a user supplied type ("DEBIT", " credit ").
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeDebit:
		return TypeDebit, nil
	case TypeCredit:
		return TypeCredit, nil
	}
	return "", ErrInvalidType
}

// Opposite returns the type that compensates t.
func (t Type) Opposite() Type {
	if t == TypeDebit {
		return TypeCredit
	}
	return TypeDebit
}

// Record is an immutable ledger entry. Corrections are new records.
type Record struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	UserID      int64           `json:"userId"`
	Type        Type            `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	OccurredOn  time.Time       `json:"occurredOn"`
	CreatedAt   time.Time       `json:"createdAt"`
	TransferID  *string         `json:"transferId,omitempty"`
	BudgetID    *string         `json:"budgetId,omitempty"`
	ReversalOf  *string         `json:"reversalOf,omitempty"`
}

// Signed returns the balance delta the record applied to its account.
func (r *Record) Signed() decimal.Decimal {
	if r.Type == TypeDebit {
		return r.Amount.Neg()
	}
	return r.Amount
}

// CreateParams contains parameters for appending a record
type CreateParams struct {
	ID          string
	AccountID   string
	UserID      int64
	Type        Type
	Amount      decimal.Decimal
	Category    string
	Description string
	OccurredOn  time.Time
	TransferID  *string
	BudgetID    *string
	ReversalOf  *string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.ID == "" || p.AccountID == "" {
		return fmt.Errorf("%w: record and account IDs are required", apperror.ErrValidation)
	}
	if p.Type != TypeDebit && p.Type != TypeCredit {
		return ErrInvalidType
	}
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(p.Category) == "" {
		return fmt.Errorf("%w: category is required", apperror.ErrValidation)
	}
	return nil
}

// ListFilter narrows a history query.
type ListFilter struct {
	AccountID string
	Limit     int
	Offset    int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Normalize clamps paging values to sane bounds.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
