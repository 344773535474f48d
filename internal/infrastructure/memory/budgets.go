package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankdash/internal/domain/budget"
)

type budgetRepo struct {
	s *Store
	u *unit
}

func copyBudget(b *budget.Budget) *budget.Budget {
	c := *b
	return &c
}

func (u *unit) budget(id string) (*budget.Budget, bool) {
	if b, ok := u.budgets[id]; ok {
		return b, true
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	b, ok := u.s.budgets[id]
	if !ok {
		return nil, false
	}
	return copyBudget(b), true
}

func (u *unit) budgetIDs() []string {
	seen := make(map[string]bool)
	u.s.mu.RLock()
	for id := range u.s.budgets {
		seen[id] = true
	}
	u.s.mu.RUnlock()
	for id := range u.budgets {
		seen[id] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *budgetRepo) Create(ctx context.Context, params budget.CreateParams) (*budget.Budget, error) {
	var created *budget.Budget
	err := run(ctx, r.s, r.u, func(u *unit) error {
		id := params.ID
		if id == "" {
			id = uuid.NewString()
		}
		now := r.s.now()
		created = &budget.Budget{
			ID:        id,
			UserID:    params.UserID,
			Category:  params.Category,
			Period:    params.Period,
			Limit:     params.Limit,
			Spent:     decimal.Zero,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		u.budgets[id] = copyBudget(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *budgetRepo) GetByID(ctx context.Context, id string) (*budget.Budget, error) {
	var found *budget.Budget
	err := run(ctx, r.s, r.u, func(u *unit) error {
		b, ok := u.budget(id)
		if !ok {
			return budget.ErrBudgetNotFound
		}
		found = copyBudget(b)
		return nil
	})
	return found, err
}

func (r *budgetRepo) ListByUserID(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	return r.filter(ctx, func(b *budget.Budget) bool { return b.UserID == userID })
}

func (r *budgetRepo) ListActive(ctx context.Context) ([]*budget.Budget, error) {
	return r.filter(ctx, func(b *budget.Budget) bool { return b.Active })
}

func (r *budgetRepo) filter(ctx context.Context, keep func(b *budget.Budget) bool) ([]*budget.Budget, error) {
	var out []*budget.Budget
	err := run(ctx, r.s, r.u, func(u *unit) error {
		for _, id := range u.budgetIDs() {
			if b, ok := u.budget(id); ok && keep(b) {
				out = append(out, copyBudget(b))
			}
		}
		return nil
	})
	return out, err
}

func (r *budgetRepo) FindActive(ctx context.Context, userID int64, category string, period budget.Period) (*budget.Budget, error) {
	var found *budget.Budget
	err := run(ctx, r.s, r.u, func(u *unit) error {
		for _, id := range u.budgetIDs() {
			b, _ := u.budget(id)
			if b == nil || !b.Active || b.UserID != userID || b.Period != period || !budget.SameCategory(b.Category, category) {
				continue
			}
			if err := u.lock(ctx, budgetKey(id)); err != nil {
				return err
			}
			// Re-read under the lock; another unit may have committed.
			b, _ = u.budget(id)
			if !b.Active {
				continue
			}
			found = copyBudget(b)
			return nil
		}
		return budget.ErrBudgetNotFound
	})
	return found, err
}

// mutate locks a budget and stages the result of fn.
func (r *budgetRepo) mutate(ctx context.Context, id string, fn func(b *budget.Budget) error) (*budget.Budget, error) {
	var updated *budget.Budget
	err := run(ctx, r.s, r.u, func(u *unit) error {
		if _, ok := u.budget(id); !ok {
			return budget.ErrBudgetNotFound
		}
		if err := u.lock(ctx, budgetKey(id)); err != nil {
			return err
		}
		b, _ := u.budget(id)
		next := copyBudget(b)
		if err := fn(next); err != nil {
			return err
		}
		next.UpdatedAt = r.s.now()
		u.budgets[id] = next
		updated = copyBudget(next)
		return nil
	})
	return updated, err
}

func (r *budgetRepo) AddSpent(ctx context.Context, id string, amount decimal.Decimal) (*budget.Budget, error) {
	return r.mutate(ctx, id, func(b *budget.Budget) error {
		if b.WouldExceed(amount) {
			return budget.ErrBudgetExceeded
		}
		b.Spent = b.Spent.Add(amount)
		return nil
	})
}

func (r *budgetRepo) Save(ctx context.Context, in *budget.Budget) (*budget.Budget, error) {
	return r.mutate(ctx, in.ID, func(b *budget.Budget) error {
		b.Limit = in.Limit
		return nil
	})
}

func (r *budgetRepo) SetSpent(ctx context.Context, id string, spent decimal.Decimal) error {
	_, err := r.mutate(ctx, id, func(b *budget.Budget) error {
		b.Spent = spent
		return nil
	})
	return err
}

func (r *budgetRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.mutate(ctx, id, func(b *budget.Budget) error {
		b.Active = false
		return nil
	})
	return err
}
