package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankdash/internal/domain/account"
	"bankdash/internal/shared/apperror"
)

type accountRepo struct {
	s *Store
	u *unit
}

func copyAccount(a *account.Account) *account.Account {
	c := *a
	return &c
}

// account returns the unit's view of an account without locking it.
func (u *unit) account(id string) (*account.Account, bool) {
	if a, ok := u.accounts[id]; ok {
		return a, true
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	a, ok := u.s.accounts[id]
	if !ok {
		return nil, false
	}
	return copyAccount(a), true
}

func (r *accountRepo) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	var created *account.Account
	err := run(ctx, r.s, r.u, func(u *unit) error {
		r.s.mu.RLock()
		for _, a := range r.s.accounts {
			if a.AccountNumber == params.AccountNumber {
				r.s.mu.RUnlock()
				return fmt.Errorf("%w: account number already registered", apperror.ErrValidation)
			}
		}
		r.s.mu.RUnlock()

		id := params.ID
		if id == "" {
			id = uuid.NewString()
		}
		now := r.s.now()
		created = &account.Account{
			ID:            id,
			UserID:        params.UserID,
			Name:          params.Name,
			BankName:      params.BankName,
			AccountNumber: params.AccountNumber,
			Currency:      params.Currency,
			Balance:       decimal.Zero,
			PINHash:       params.PINHash,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		u.accounts[id] = copyAccount(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	var found *account.Account
	err := run(ctx, r.s, r.u, func(u *unit) error {
		a, ok := u.account(id)
		if !ok {
			return account.ErrAccountNotFound
		}
		found = copyAccount(a)
		return nil
	})
	return found, err
}

func (r *accountRepo) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	return r.filter(ctx, func(a *account.Account) bool { return a.UserID == userID })
}

func (r *accountRepo) FindByNumberSuffix(ctx context.Context, suffix string) ([]*account.Account, error) {
	return r.filter(ctx, func(a *account.Account) bool { return strings.HasSuffix(a.AccountNumber, suffix) })
}

func (r *accountRepo) filter(ctx context.Context, keep func(a *account.Account) bool) ([]*account.Account, error) {
	var out []*account.Account
	err := run(ctx, r.s, r.u, func(u *unit) error {
		r.s.mu.RLock()
		ids := make([]string, 0, len(r.s.accounts))
		for id := range r.s.accounts {
			ids = append(ids, id)
		}
		r.s.mu.RUnlock()
		for id := range u.accounts {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if a, ok := u.account(id); ok && keep(a) {
				out = append(out, copyAccount(a))
			}
		}
		return nil
	})
	return out, err
}

func (r *accountRepo) LockForUpdate(ctx context.Context, ids ...string) (map[string]*account.Account, error) {
	out := make(map[string]*account.Account, len(ids))
	err := run(ctx, r.s, r.u, func(u *unit) error {
		var keys []string
		for _, id := range ids {
			if _, ok := u.account(id); ok {
				keys = append(keys, accountKey(id))
			}
		}
		if err := u.lock(ctx, keys...); err != nil {
			return err
		}
		for _, id := range ids {
			if a, ok := u.account(id); ok {
				out[id] = copyAccount(a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accountRepo) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (*account.Account, error) {
	var updated *account.Account
	err := run(ctx, r.s, r.u, func(u *unit) error {
		if _, ok := u.account(id); !ok {
			return account.ErrAccountNotFound
		}
		if err := u.lock(ctx, accountKey(id)); err != nil {
			return err
		}
		a, _ := u.account(id)
		balance := a.Balance.Add(delta)
		if balance.IsNegative() {
			return account.ErrInsufficientFunds
		}
		next := copyAccount(a)
		next.Balance = balance
		next.UpdatedAt = r.s.now()
		u.accounts[id] = next
		updated = copyAccount(next)
		return nil
	})
	return updated, err
}
