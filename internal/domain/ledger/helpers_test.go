package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/ledger"
	"bankdash/internal/domain/notification"
	"bankdash/internal/domain/reward"
	"bankdash/internal/domain/transaction"
	"bankdash/internal/domain/transfer"
	"bankdash/internal/infrastructure/memory"
)

const testPIN = "1234"

type sentNotification struct {
	userID int64
	msg    notification.Message
}

// captureDispatcher records notifications synchronously.
type captureDispatcher struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (c *captureDispatcher) Notify(ctx context.Context, userID int64, msg notification.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentNotification{userID: userID, msg: msg})
}

func (c *captureDispatcher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *captureDispatcher) byCategory(category notification.Category) []sentNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []sentNotification
	for _, n := range c.sent {
		if n.msg.Category == category {
			out = append(out, n)
		}
	}
	return out
}

// memoryIdempotency is an in-process IdempotencyStore.
type memoryIdempotency struct {
	mu      sync.Mutex
	pending map[string]bool
	done    map[string]transfer.Result
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{pending: map[string]bool{}, done: map[string]transfer.Result{}}
}

func (m *memoryIdempotency) Reserve(ctx context.Context, key string, ttl time.Duration) (*transfer.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.done[key]; ok {
		return &r, false, nil
	}
	if m.pending[key] {
		return nil, false, nil
	}
	m.pending[key] = true
	return nil, true, nil
}

func (m *memoryIdempotency) Complete(ctx context.Context, key string, result transfer.Result, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, key)
	m.done[key] = result
	return nil
}

func (m *memoryIdempotency) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, key)
	return nil
}

type fixture struct {
	t        *testing.T
	store    *memory.Store
	bills    *memory.BillRepository
	rewards  *memory.RewardRepository
	notifier *captureDispatcher
	idem     *memoryIdempotency
	svc      *ledger.Service
}

type fixtureOption func(deps *ledger.Deps, opts *ledger.Options)

func newFixture(t *testing.T, options ...fixtureOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		t:        t,
		store:    store,
		bills:    memory.NewBillRepository(store),
		rewards:  memory.NewRewardRepository(store),
		notifier: &captureDispatcher{},
		idem:     newMemoryIdempotency(),
	}
	deps := ledger.Deps{
		Tx:           store,
		Accounts:     store.Accounts(),
		Transactions: store.Transactions(),
		Idempotency:  f.idem,
		Notifier:     f.notifier,
		Rewards:      reward.NewService(f.rewards),
	}
	opts := ledger.DefaultOptions()
	for _, o := range options {
		o(&deps, &opts)
	}
	f.svc = ledger.NewService(deps, opts)
	return f
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// openAccount creates an account and funds it without writing a record.
func (f *fixture) openAccount(id string, userID int64, number, balance string) *account.Account {
	f.t.Helper()
	ctx := context.Background()
	acc, err := account.NewService(f.store.Accounts()).OpenAccount(ctx, account.CreateParams{
		ID: id, UserID: userID, Name: id, BankName: "Test Bank", AccountNumber: number, PIN: testPIN,
	})
	require.NoError(f.t, err)
	if b := d(balance); b.IsPositive() {
		_, err = f.store.Accounts().AdjustBalance(ctx, id, b)
		require.NoError(f.t, err)
	}
	return acc
}

func (f *fixture) createBudget(userID int64, category, limit, spent string) *budget.Budget {
	f.t.Helper()
	ctx := context.Background()
	b, err := budget.NewService(f.store.Budgets()).Create(ctx, budget.CreateParams{
		UserID: userID, Category: category, Period: budget.PeriodOf(time.Now().UTC()), Limit: d(limit),
	})
	require.NoError(f.t, err)
	if s := d(spent); s.IsPositive() {
		require.NoError(f.t, f.store.Budgets().SetSpent(ctx, b.ID, s))
	}
	return b
}

func (f *fixture) balance(id string) decimal.Decimal {
	f.t.Helper()
	a, err := f.store.Accounts().GetByID(context.Background(), id)
	require.NoError(f.t, err)
	return a.Balance
}

func (f *fixture) recordCount(accountID string) int64 {
	f.t.Helper()
	n, err := f.store.Transactions().CountByAccountID(context.Background(), accountID)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) records(accountID string) []*transaction.Record {
	f.t.Helper()
	recs, err := f.store.Transactions().ListByAccountID(context.Background(), transaction.ListFilter{AccountID: accountID})
	require.NoError(f.t, err)
	return recs
}

func (f *fixture) spent(budgetID string) decimal.Decimal {
	f.t.Helper()
	b, err := f.store.Budgets().GetByID(context.Background(), budgetID)
	require.NoError(f.t, err)
	return b.Spent
}
