// Package memory is an in-process storage driver used for local runs and
// tests. It honors the same unit-of-work contract as the Postgres driver:
// row locks taken in ascending ID order, writes staged until commit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/bill"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/ledger"
	"bankdash/internal/domain/notification"
	"bankdash/internal/domain/reward"
	"bankdash/internal/domain/transaction"
)

// Store holds all state. mu guards the maps; row locks serialize units.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
	records  map[string]*transaction.Record
	order    []string // record IDs in insertion order
	budgets  map[string]*budget.Budget
	bills    map[string]*bill.Bill
	rewards  map[string]*reward.Balance

	devices       map[string]*notification.Device
	preferences   map[int64]*notification.Preferences
	notifications []*notification.Notification

	locks *lockTable
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]*account.Account),
		records:     make(map[string]*transaction.Record),
		budgets:     make(map[string]*budget.Budget),
		bills:       make(map[string]*bill.Bill),
		rewards:     make(map[string]*reward.Balance),
		devices:     make(map[string]*notification.Device),
		preferences: make(map[int64]*notification.Preferences),
		locks:       newLockTable(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithinTx implements ledger.TxManager.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow ledger.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := s.begin()
	defer u.release()

	if err := fn(ctx, u); err != nil {
		return err
	}
	return u.commit(ctx)
}

// Accounts returns an auto-committing account repository.
func (s *Store) Accounts() account.Repository { return &accountRepo{s: s} }

// Transactions returns an auto-committing transaction repository.
func (s *Store) Transactions() transaction.Repository { return &transactionRepo{s: s} }

// Budgets returns an auto-committing budget repository.
func (s *Store) Budgets() budget.Repository { return &budgetRepo{s: s} }

// lockTable hands out one-slot channels per row key. A channel lock can be
// abandoned when ctx expires, which a sync.Mutex cannot.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (t *lockTable) slot(key string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		t.slots[key] = ch
	}
	return ch
}

func (t *lockTable) acquire(ctx context.Context, key string) error {
	select {
	case t.slot(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to lock %s: %w", key, ctx.Err())
	}
}

func (t *lockTable) release(key string) {
	<-t.slot(key)
}

// unit is one unit of work. Reads see staged writes; commit publishes
// them atomically.
type unit struct {
	s    *Store
	held map[string]bool
	keys []string

	accounts map[string]*account.Account
	budgets  map[string]*budget.Budget
	bills    map[string]*bill.Bill
	records  []*transaction.Record
}

func (s *Store) begin() *unit {
	return &unit{
		s:        s,
		held:     make(map[string]bool),
		accounts: make(map[string]*account.Account),
		budgets:  make(map[string]*budget.Budget),
		bills:    make(map[string]*bill.Bill),
	}
}

func (u *unit) Accounts() account.Repository         { return &accountRepo{s: u.s, u: u} }
func (u *unit) Transactions() transaction.Repository { return &transactionRepo{s: u.s, u: u} }
func (u *unit) Budgets() budget.Repository           { return &budgetRepo{s: u.s, u: u} }
func (u *unit) Bills() bill.Repository               { return &BillRepository{s: u.s, u: u} }

// lock acquires row locks for keys not yet held, in ascending order.
func (u *unit) lock(ctx context.Context, keys ...string) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, k := range sorted {
		if u.held[k] {
			continue
		}
		if err := u.s.locks.acquire(ctx, k); err != nil {
			return err
		}
		u.held[k] = true
		u.keys = append(u.keys, k)
	}
	return nil
}

func (u *unit) release() {
	for i := len(u.keys) - 1; i >= 0; i-- {
		u.s.locks.release(u.keys[i])
	}
	u.keys = nil
	u.held = map[string]bool{}
}

func (u *unit) commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for id, a := range u.accounts {
		u.s.accounts[id] = a
	}
	for id, b := range u.budgets {
		u.s.budgets[id] = b
	}
	for id, b := range u.bills {
		u.s.bills[id] = b
	}
	for _, r := range u.records {
		u.s.records[r.ID] = r
		u.s.order = append(u.s.order, r.ID)
	}
	return nil
}

func accountKey(id string) string { return "account:" + id }
func budgetKey(id string) string  { return "budget:" + id }
func billKey(id string) string    { return "bill:" + id }

// run opens a single-statement unit when the repository is not bound
// to one.
func run(ctx context.Context, s *Store, u *unit, fn func(u *unit) error) error {
	if u != nil {
		return fn(u)
	}
	u = s.begin()
	defer u.release()
	if err := fn(u); err != nil {
		return err
	}
	return u.commit(ctx)
}
