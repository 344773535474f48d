package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/transaction"
)

const recordColumns = `id, account_id, user_id, type, amount, category, description, occurred_on,
	created_at, transfer_id, budget_id, reversal_of`

// TransactionRepository is append-only: records are never updated.
type TransactionRepository struct {
	q querier
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

func scanRecord(row rowScanner) (*transaction.Record, error) {
	var rec transaction.Record
	var transferID, budgetID, reversalOf sql.NullString
	err := row.Scan(
		&rec.ID, &rec.AccountID, &rec.UserID, &rec.Type, &rec.Amount, &rec.Category,
		&rec.Description, &rec.OccurredOn, &rec.CreatedAt, &transferID, &budgetID, &reversalOf,
	)
	if err != nil {
		return nil, err
	}
	rec.TransferID = stringPtr(transferID)
	rec.BudgetID = stringPtr(budgetID)
	rec.ReversalOf = stringPtr(reversalOf)
	return &rec, nil
}

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Record, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO transactions (id, account_id, user_id, type, amount, category, description, occurred_on,
		                          transfer_id, budget_id, reversal_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + recordColumns

	rec, err := scanRecord(r.q.QueryRowContext(ctx, query,
		params.ID, params.AccountID, params.UserID, string(params.Type), params.Amount, params.Category,
		params.Description, params.OccurredOn,
		nullString(params.TransferID), nullString(params.BudgetID), nullString(params.ReversalOf),
	))
	if err != nil {
		return nil, translate(fmt.Errorf("failed to create transaction: %w", err))
	}
	return rec, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM transactions WHERE id = $1`

	rec, err := scanRecord(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transaction.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return rec, nil
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Record, error) {
	filter = filter.Normalize()
	query := `
		SELECT ` + recordColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.QueryContext(ctx, query, filter.AccountID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var records []*transaction.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return records, nil
}

func (r *TransactionRepository) CountByAccountID(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

func (r *TransactionRepository) FindReversal(ctx context.Context, recordID string) (*transaction.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM transactions WHERE reversal_of = $1`

	rec, err := scanRecord(r.q.QueryRowContext(ctx, query, recordID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transaction.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reversal: %w", err)
	}
	return rec, nil
}

func (r *TransactionRepository) SumDebitsByBudget(ctx context.Context, budgetID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE budget_id = $1 AND type = 'debit'`
	if err := r.q.QueryRowContext(ctx, query, budgetID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum budget debits: %w", err)
	}
	return sum, nil
}
