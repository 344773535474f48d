package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/transaction"
)

// Entry describes one record to post.
type Entry struct {
	AccountID   string
	UserID      int64
	Type        transaction.Type
	Amount      decimal.Decimal
	Category    string
	Description string
	OccurredOn  *time.Time
	TransferID  *string
	ReversalOf  *string
}

// Posting is the outcome of a recorded entry.
type Posting struct {
	Record  *transaction.Record
	Account *account.Account
	Balance decimal.Decimal

	// Budget state around the commit; nil when no budget applied.
	BudgetBefore *budget.Budget
	BudgetAfter  *budget.Budget
}

// Recorder posts entries inside an open unit of work.
type Recorder struct {
	ledger   *account.Ledger
	enforcer *budget.Enforcer
	now      func() time.Time
}

// NewRecorder creates a recorder over the account ledger and budget enforcer.
func NewRecorder(ledger *account.Ledger, enforcer *budget.Enforcer) *Recorder {
	return &Recorder{ledger: ledger, enforcer: enforcer, now: time.Now}
}

// Record validates e, locks its account, enforces current-period budgets
// for debits, adjusts the balance, appends the record and commits budget
// spend. Any error leaves the unit to be rolled back by the caller.
func (r *Recorder) Record(ctx context.Context, uow UnitOfWork, e Entry) (*Posting, error) {
	amount := e.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, transaction.ErrInvalidAmount
	}
	if e.Type != transaction.TypeDebit && e.Type != transaction.TypeCredit {
		return nil, transaction.ErrInvalidType
	}
	category := transaction.Resolve(e.Category, e.Description)

	now := r.now().UTC()
	occurred := now
	if e.OccurredOn != nil && !e.OccurredOn.IsZero() {
		occurred = e.OccurredOn.UTC()
	}

	locked, err := uow.Accounts().LockForUpdate(ctx, e.AccountID)
	if err != nil {
		return nil, err
	}
	acc, ok := locked[e.AccountID]
	if !ok || acc.UserID != e.UserID {
		return nil, account.ErrAccountNotFound
	}

	var authorized *budget.Budget
	if e.Type == transaction.TypeDebit {
		if acc.Balance.LessThan(amount) {
			return nil, account.ErrInsufficientFunds
		}
		// Spend always lands in the current period, whatever date the
		// entry carries.
		authorized, err = r.enforcer.Authorize(ctx, uow.Budgets(), e.UserID, category, budget.PeriodOf(now), amount)
		if err != nil {
			return nil, err
		}
	}

	delta := amount
	if e.Type == transaction.TypeDebit {
		delta = amount.Neg()
	}
	balance, err := r.ledger.AdjustBalance(ctx, uow.Accounts(), acc.ID, delta)
	if err != nil {
		return nil, err
	}

	params := transaction.CreateParams{
		ID:          uuid.NewString(),
		AccountID:   acc.ID,
		UserID:      e.UserID,
		Type:        e.Type,
		Amount:      amount,
		Category:    category,
		Description: strings.TrimSpace(e.Description),
		OccurredOn:  occurred,
		TransferID:  e.TransferID,
		ReversalOf:  e.ReversalOf,
	}
	if authorized != nil {
		params.BudgetID = &authorized.ID
	}
	rec, err := uow.Transactions().Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction record: %w", err)
	}

	posting := &Posting{Record: rec, Account: acc, Balance: balance}
	if authorized != nil {
		after, err := r.enforcer.Commit(ctx, uow.Budgets(), authorized, amount)
		if err != nil {
			return nil, err
		}
		posting.BudgetBefore = authorized
		posting.BudgetAfter = after
	}

	return posting, nil
}
