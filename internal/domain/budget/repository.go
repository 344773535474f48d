package budget

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for budget data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Budget, error)
	GetByID(ctx context.Context, id string) (*Budget, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Budget, error)

	// ListActive returns every active budget across all users
	ListActive(ctx context.Context) ([]*Budget, error)

	// FindActive returns the active budget for owner, category and period,
	// locked for the rest of the unit of work. Category matching is
	// case-insensitive. Returns ErrBudgetNotFound when none exists.
	FindActive(ctx context.Context, userID int64, category string, period Period) (*Budget, error)

	// AddSpent increases spent by amount. It fails with ErrBudgetExceeded,
	// leaving the row untouched, if spent would pass the limit.
	AddSpent(ctx context.Context, id string, amount decimal.Decimal) (*Budget, error)

	// Save persists the mutable fields of b (limit)
	Save(ctx context.Context, b *Budget) (*Budget, error)

	// SetSpent overwrites spent; used only by reconciliation
	SetSpent(ctx context.Context, id string, spent decimal.Decimal) error

	// Deactivate soft-deletes a budget
	Deactivate(ctx context.Context, id string) error
}
