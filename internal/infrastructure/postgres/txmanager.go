package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/bill"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/ledger"
	"bankdash/internal/domain/transaction"
)

// TxManager runs units of work as READ COMMITTED transactions. Row locks
// are taken with SELECT ... FOR UPDATE; lock waits are bounded by both the
// context and lock_timeout.
type TxManager struct {
	db          *DB
	lockTimeout time.Duration
}

// NewTxManager creates a transaction manager. A zero lockTimeout leaves the
// server default in place.
func NewTxManager(db *DB, lockTimeout time.Duration) *TxManager {
	return &TxManager{db: db, lockTimeout: lockTimeout}
}

// WithinTx implements ledger.TxManager.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, uow ledger.UnitOfWork) error) error {
	sqlTx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return translate(fmt.Errorf("failed to begin transaction: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	tx := &Tx{tx: sqlTx}
	if m.lockTimeout > 0 {
		// SET does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return translate(fmt.Errorf("failed to set lock timeout: %w", err))
		}
	}

	if err := fn(ctx, &unitOfWork{q: tx}); err != nil {
		return translate(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return translate(fmt.Errorf("failed to commit transaction: %w", err))
	}
	committed = true
	return nil
}

type unitOfWork struct {
	q querier
}

func (u *unitOfWork) Accounts() account.Repository {
	return &AccountRepository{q: u.q}
}

func (u *unitOfWork) Transactions() transaction.Repository {
	return &TransactionRepository{q: u.q}
}

func (u *unitOfWork) Budgets() budget.Repository {
	return &BudgetRepository{q: u.q}
}

func (u *unitOfWork) Bills() bill.Repository {
	return &BillRepository{q: u.q}
}
