package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/transaction"
)

type transactionRepo struct {
	s *Store
	u *unit
}

func copyRecord(r *transaction.Record) *transaction.Record {
	c := *r
	return &c
}

// allRecords returns committed records followed by the unit's staged ones,
// in insertion order.
func (u *unit) allRecords() []*transaction.Record {
	u.s.mu.RLock()
	out := make([]*transaction.Record, 0, len(u.s.order)+len(u.records))
	for _, id := range u.s.order {
		out = append(out, u.s.records[id])
	}
	u.s.mu.RUnlock()
	return append(out, u.records...)
}

func (r *transactionRepo) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Record, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var created *transaction.Record
	err := run(ctx, r.s, r.u, func(u *unit) error {
		created = &transaction.Record{
			ID:          params.ID,
			AccountID:   params.AccountID,
			UserID:      params.UserID,
			Type:        params.Type,
			Amount:      params.Amount,
			Category:    params.Category,
			Description: params.Description,
			OccurredOn:  params.OccurredOn,
			CreatedAt:   r.s.now(),
			TransferID:  params.TransferID,
			BudgetID:    params.BudgetID,
			ReversalOf:  params.ReversalOf,
		}
		u.records = append(u.records, copyRecord(created))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*transaction.Record, error) {
	var found *transaction.Record
	err := run(ctx, r.s, r.u, func(u *unit) error {
		for _, rec := range u.allRecords() {
			if rec.ID == id {
				found = copyRecord(rec)
				return nil
			}
		}
		return transaction.ErrRecordNotFound
	})
	return found, err
}

func (r *transactionRepo) ListByAccountID(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Record, error) {
	filter = filter.Normalize()
	var out []*transaction.Record
	err := run(ctx, r.s, r.u, func(u *unit) error {
		all := u.allRecords()
		skipped := 0
		for i := len(all) - 1; i >= 0 && len(out) < filter.Limit; i-- {
			if all[i].AccountID != filter.AccountID {
				continue
			}
			if skipped < filter.Offset {
				skipped++
				continue
			}
			out = append(out, copyRecord(all[i]))
		}
		return nil
	})
	return out, err
}

func (r *transactionRepo) CountByAccountID(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := run(ctx, r.s, r.u, func(u *unit) error {
		for _, rec := range u.allRecords() {
			if rec.AccountID == accountID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *transactionRepo) FindReversal(ctx context.Context, recordID string) (*transaction.Record, error) {
	var found *transaction.Record
	err := run(ctx, r.s, r.u, func(u *unit) error {
		for _, rec := range u.allRecords() {
			if rec.ReversalOf != nil && *rec.ReversalOf == recordID {
				found = copyRecord(rec)
				return nil
			}
		}
		return transaction.ErrRecordNotFound
	})
	return found, err
}

func (r *transactionRepo) SumDebitsByBudget(ctx context.Context, budgetID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := run(ctx, r.s, r.u, func(u *unit) error {
		for _, rec := range u.allRecords() {
			if rec.Type == transaction.TypeDebit && rec.BudgetID != nil && *rec.BudgetID == budgetID {
				sum = sum.Add(rec.Amount)
			}
		}
		return nil
	})
	return sum, err
}
