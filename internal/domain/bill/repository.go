package bill

import (
	"context"
	"time"
)

// Repository persists biller accounts. Paying a bill moves money through
// the ledger; this store only tracks due and paid state.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Bill, error)
	GetByID(ctx context.Context, id string) (*Bill, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Bill, error)

	// LockForUpdate reads the bill and holds its row until the enclosing
	// unit of work ends.
	LockForUpdate(ctx context.Context, id string) (*Bill, error)

	// MarkPaid settles a payable bill. A bill that is already paid or
	// cancelled is left untouched and ErrAlreadyPaid or ErrNotPayable is
	// returned.
	MarkPaid(ctx context.Context, id, transactionID string, paidAt time.Time) error
}
