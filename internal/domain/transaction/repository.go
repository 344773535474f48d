package transaction

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for transaction record data access.
// Records are append-only: there is no Update or Delete.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	ListByAccountID(ctx context.Context, filter ListFilter) ([]*Record, error)
	CountByAccountID(ctx context.Context, accountID string) (int64, error)

	// FindReversal returns the record compensating recordID, or
	// ErrRecordNotFound if it has not been reversed.
	FindReversal(ctx context.Context, recordID string) (*Record, error)

	// SumDebitsByBudget totals the debit amounts committed against a budget
	SumDebitsByBudget(ctx context.Context, budgetID string) (decimal.Decimal, error)
}
