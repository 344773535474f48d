package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"bankdash/internal/domain/bill"
)

// BillRepository implements bill.Repository on a Store. Bound to a unit
// it reads staged state and defers writes to commit.
type BillRepository struct {
	s *Store
	u *unit
}

// NewBillRepository creates a bill repository over s.
func NewBillRepository(s *Store) *BillRepository {
	return &BillRepository{s: s}
}

func (r *BillRepository) Create(ctx context.Context, params bill.CreateParams) (*bill.Bill, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := r.s.now()
	b := &bill.Bill{
		ID:          id,
		UserID:      params.UserID,
		BillType:    params.BillType,
		Biller:      params.Biller,
		ReferenceID: params.ReferenceID,
		Provider:    params.Provider,
		Amount:      params.Amount,
		DueDate:     params.DueDate,
		Status:      bill.StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.bills[id] = b
	c := *b
	return &c, nil
}

func (r *BillRepository) GetByID(ctx context.Context, id string) (*bill.Bill, error) {
	if r.u != nil {
		if b, ok := r.u.bill(id); ok {
			return b, nil
		}
		return nil, bill.ErrBillNotFound
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bills[id]
	if !ok {
		return nil, bill.ErrBillNotFound
	}
	c := *b
	return &c, nil
}

func (r *BillRepository) LockForUpdate(ctx context.Context, id string) (*bill.Bill, error) {
	var found *bill.Bill
	err := run(ctx, r.s, r.u, func(u *unit) error {
		if err := u.lock(ctx, billKey(id)); err != nil {
			return err
		}
		b, ok := u.bill(id)
		if !ok {
			return bill.ErrBillNotFound
		}
		found = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *BillRepository) ListByUserID(ctx context.Context, userID int64) ([]*bill.Bill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*bill.Bill
	for _, b := range r.s.bills {
		if b.UserID == userID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BillRepository) MarkPaid(ctx context.Context, id, transactionID string, paidAt time.Time) error {
	return run(ctx, r.s, r.u, func(u *unit) error {
		if err := u.lock(ctx, billKey(id)); err != nil {
			return err
		}
		b, ok := u.bill(id)
		if !ok {
			return bill.ErrBillNotFound
		}
		if err := b.Payable(); err != nil {
			return err
		}
		b.Status = bill.StatusPaid
		b.PaidAt = &paidAt
		b.TransactionID = &transactionID
		b.UpdatedAt = r.s.now()
		u.bills[id] = b
		return nil
	})
}

// bill returns the unit's view of a bill without locking it.
func (u *unit) bill(id string) (*bill.Bill, bool) {
	if b, ok := u.bills[id]; ok {
		c := *b
		return &c, true
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	b, ok := u.s.bills[id]
	if !ok {
		return nil, false
	}
	c := *b
	return &c, true
}
