package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bankdash/internal/domain/account"
)

const accountColumns = `id, user_id, name, bank_name, account_number, currency, balance, pin_hash, created_at, updated_at`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	q querier
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{q: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID, &acc.UserID, &acc.Name, &acc.BankName, &acc.AccountNumber,
		&acc.Currency, &acc.Balance, &acc.PINHash, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// Create opens a new account with a zero balance
func (r *AccountRepository) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}
	query := `
		INSERT INTO accounts (id, user_id, name, bank_name, account_number, currency, balance, pin_hash)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		RETURNING ` + accountColumns

	acc, err := scanAccount(r.q.QueryRowContext(ctx, query,
		id, params.UserID, params.Name, params.BankName, params.AccountNumber, params.Currency, params.PINHash,
	))
	if err != nil {
		return nil, translate(fmt.Errorf("failed to create account: %w", err))
	}
	return acc, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// ListByUserID retrieves all accounts for a specific user
func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, "list accounts", query, userID)
}

// FindByNumberSuffix returns every account whose number ends with suffix.
// suffix is digits only, so it cannot carry LIKE wildcards.
func (r *AccountRepository) FindByNumberSuffix(ctx context.Context, suffix string) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number LIKE '%' || $1 ORDER BY id`
	return r.list(ctx, "find accounts by number", query, suffix)
}

// LockForUpdate locks the rows in ascending ID order. Postgres applies
// FOR UPDATE after the sort, so concurrent units acquire the same rows in
// the same order.
func (r *AccountRepository) LockForUpdate(ctx context.Context, ids ...string) (map[string]*account.Account, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	accounts, err := r.list(ctx, "lock accounts", query, pq.Array(sorted))
	if err != nil {
		return nil, translate(err)
	}

	out := make(map[string]*account.Account, len(accounts))
	for _, acc := range accounts {
		out[acc.ID] = acc
	}
	return out, nil
}

// AdjustBalance applies delta in one conditional statement so the balance
// can never go negative, even without a prior lock.
func (r *AccountRepository) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (*account.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING ` + accountColumns

	acc, err := scanAccount(r.q.QueryRowContext(ctx, query, id, delta))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, account.ErrInsufficientFunds
	}
	if err != nil {
		return nil, translate(fmt.Errorf("failed to adjust balance: %w", err))
	}
	return acc, nil
}

func (r *AccountRepository) list(ctx context.Context, op, query string, args ...any) ([]*account.Account, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
