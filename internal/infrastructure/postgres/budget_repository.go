package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankdash/internal/domain/budget"
)

const budgetColumns = `id, user_id, category, month, year, limit_amount, spent, active, created_at, updated_at`

type BudgetRepository struct {
	q querier
}

func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{q: db}
}

func scanBudget(row rowScanner) (*budget.Budget, error) {
	var b budget.Budget
	err := row.Scan(
		&b.ID, &b.UserID, &b.Category, &b.Period.Month, &b.Period.Year,
		&b.Limit, &b.Spent, &b.Active, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BudgetRepository) Create(ctx context.Context, params budget.CreateParams) (*budget.Budget, error) {
	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}
	query := `
		INSERT INTO budgets (id, user_id, category, month, year, limit_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + budgetColumns

	b, err := scanBudget(r.q.QueryRowContext(ctx, query,
		id, params.UserID, strings.TrimSpace(params.Category), params.Period.Month, params.Period.Year, params.Limit,
	))
	if err != nil {
		return nil, translate(fmt.Errorf("failed to create budget: %w", err))
	}
	return b, nil
}

func (r *BudgetRepository) GetByID(ctx context.Context, id string) (*budget.Budget, error) {
	b, err := scanBudget(r.q.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return b, nil
}

func (r *BudgetRepository) ListByUserID(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets
		WHERE user_id = $1
		ORDER BY year DESC, month DESC, category
	`
	return r.list(ctx, query, userID)
}

func (r *BudgetRepository) ListActive(ctx context.Context) ([]*budget.Budget, error) {
	return r.list(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE active ORDER BY id`)
}

// FindActive locks the matching budget row for the rest of the unit.
func (r *BudgetRepository) FindActive(ctx context.Context, userID int64, category string, period budget.Period) (*budget.Budget, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets
		WHERE user_id = $1 AND LOWER(category) = LOWER($2) AND month = $3 AND year = $4 AND active
		FOR UPDATE
	`
	b, err := scanBudget(r.q.QueryRowContext(ctx, query, userID, strings.TrimSpace(category), period.Month, period.Year))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrBudgetNotFound
	}
	if err != nil {
		return nil, translate(fmt.Errorf("failed to find budget: %w", err))
	}
	return b, nil
}

// AddSpent is a conditional increment: the row is only touched if the new
// total stays within the limit.
func (r *BudgetRepository) AddSpent(ctx context.Context, id string, amount decimal.Decimal) (*budget.Budget, error) {
	query := `
		UPDATE budgets
		SET spent = spent + $2, updated_at = NOW()
		WHERE id = $1 AND active AND spent + $2 <= limit_amount
		RETURNING ` + budgetColumns

	b, err := scanBudget(r.q.QueryRowContext(ctx, query, id, amount))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, budget.ErrBudgetExceeded
	}
	if err != nil {
		return nil, translate(fmt.Errorf("failed to add budget spend: %w", err))
	}
	return b, nil
}

func (r *BudgetRepository) Save(ctx context.Context, b *budget.Budget) (*budget.Budget, error) {
	query := `
		UPDATE budgets
		SET limit_amount = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + budgetColumns

	saved, err := scanBudget(r.q.QueryRowContext(ctx, query, b.ID, b.Limit))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrBudgetNotFound
	}
	if err != nil {
		return nil, translate(fmt.Errorf("failed to save budget: %w", err))
	}
	return saved, nil
}

func (r *BudgetRepository) SetSpent(ctx context.Context, id string, spent decimal.Decimal) error {
	return r.exec(ctx, "set budget spend", `UPDATE budgets SET spent = $2, updated_at = NOW() WHERE id = $1`, id, spent)
}

func (r *BudgetRepository) Deactivate(ctx context.Context, id string) error {
	return r.exec(ctx, "deactivate budget", `UPDATE budgets SET active = false, updated_at = NOW() WHERE id = $1`, id)
}

func (r *BudgetRepository) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(fmt.Errorf("failed to %s: %w", op, err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return budget.ErrBudgetNotFound
	}
	return nil
}

func (r *BudgetRepository) list(ctx context.Context, query string, args ...any) ([]*budget.Budget, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}
