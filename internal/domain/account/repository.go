package account

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for account data access.
// Inside a unit of work the implementation is bound to the underlying
// database transaction.
type Repository interface {
	// Create opens a new account with a zero balance
	Create(ctx context.Context, params CreateParams) (*Account, error)

	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByUserID retrieves all accounts for a specific user
	ListByUserID(ctx context.Context, userID int64) ([]*Account, error)

	// FindByNumberSuffix returns every account whose number ends with suffix
	FindByNumberSuffix(ctx context.Context, suffix string) ([]*Account, error)

	// LockForUpdate locks the given accounts for the rest of the unit of
	// work. Implementations acquire locks in ascending ID order and return
	// the locked accounts keyed by ID; unknown IDs are absent from the map.
	LockForUpdate(ctx context.Context, ids ...string) (map[string]*Account, error)

	// AdjustBalance adds delta to the balance in a single statement and
	// returns the updated account. It fails with ErrInsufficientFunds,
	// leaving the row untouched, if the result would be negative.
	AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (*Account, error)
}
