package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bankdash/internal/domain/bill"
)

const billColumns = `id, user_id, bill_type, biller, reference_id, provider, amount, due_date, status,
	paid_at, transaction_id, created_at, updated_at`

type BillRepository struct {
	q querier
}

func NewBillRepository(db *DB) *BillRepository {
	return &BillRepository{q: db}
}

func scanBill(row rowScanner) (*bill.Bill, error) {
	var b bill.Bill
	var provider, transactionID sql.NullString
	var dueDate, paidAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.UserID, &b.BillType, &b.Biller, &b.ReferenceID, &provider, &b.Amount, &dueDate,
		&b.Status, &paidAt, &transactionID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Provider = stringPtr(provider)
	b.TransactionID = stringPtr(transactionID)
	b.DueDate = timePtr(dueDate)
	b.PaidAt = timePtr(paidAt)
	return &b, nil
}

func (r *BillRepository) Create(ctx context.Context, params bill.CreateParams) (*bill.Bill, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}
	var dueDate sql.NullTime
	if params.DueDate != nil {
		dueDate = sql.NullTime{Time: *params.DueDate, Valid: true}
	}

	query := `
		INSERT INTO bills (id, user_id, bill_type, biller, reference_id, provider, amount, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + billColumns

	b, err := scanBill(r.q.QueryRowContext(ctx, query,
		id, params.UserID, params.BillType, params.Biller, params.ReferenceID,
		nullString(params.Provider), params.Amount, dueDate, bill.StatusOpen,
	))
	if err != nil {
		return nil, translate(fmt.Errorf("failed to create bill: %w", err))
	}
	return b, nil
}

func (r *BillRepository) GetByID(ctx context.Context, id string) (*bill.Bill, error) {
	return r.get(ctx, "get", `SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
}

func (r *BillRepository) LockForUpdate(ctx context.Context, id string) (*bill.Bill, error) {
	b, err := r.get(ctx, "lock", `SELECT `+billColumns+` FROM bills WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (r *BillRepository) get(ctx context.Context, op, query string, id string) (*bill.Bill, error) {
	b, err := scanBill(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bill.ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s bill: %w", op, err)
	}
	return b, nil
}

func (r *BillRepository) ListByUserID(ctx context.Context, userID int64) ([]*bill.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE user_id = $1
		ORDER BY due_date NULLS LAST, created_at
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*bill.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bills: %w", err)
	}
	return bills, nil
}

func (r *BillRepository) MarkPaid(ctx context.Context, id, transactionID string, paidAt time.Time) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE bills
		SET status = $2, transaction_id = $3, paid_at = $4, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ($2, $5)`,
		id, bill.StatusPaid, transactionID, paidAt, bill.StatusCancelled,
	)
	if err != nil {
		return fmt.Errorf("failed to mark bill paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		b, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := b.Payable(); err != nil {
			return err
		}
		return fmt.Errorf("failed to mark bill paid: no rows updated")
	}
	return nil
}
