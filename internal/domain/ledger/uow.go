// Package ledger coordinates money-moving operations. Each operation runs
// as one unit of work: balance adjustments, record inserts and budget
// commits either all persist or none do. Notifications and rewards happen
// only after the unit commits and never undo it.
package ledger

import (
	"context"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/bill"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/transaction"
)

// UnitOfWork exposes repositories bound to one storage transaction.
type UnitOfWork interface {
	Accounts() account.Repository
	Transactions() transaction.Repository
	Budgets() budget.Repository
	Bills() bill.Repository
}

// TxManager runs fn inside a unit of work. The unit commits when fn
// returns nil and rolls back otherwise. Implementations must abort with no
// partial effect when ctx expires while waiting for locks or committing.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
