package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	budgetMeter     = otel.Meter("bankdash/budget")
	budgetChecks, _ = budgetMeter.Int64Counter("budget.checks",
		metric.WithDescription("Budget authorization decisions by outcome"),
	)
)

// Enforcer gates debits against the owner's active budget.
type Enforcer struct{}

// NewEnforcer creates a new budget enforcer
func NewEnforcer() *Enforcer {
	return &Enforcer{}
}

// Authorize returns the budget the debit will count against, or nil when
// no active budget covers the category and period. It has no side effects.
func (e *Enforcer) Authorize(ctx context.Context, repo Repository, userID int64, category string, period Period, amount decimal.Decimal) (*Budget, error) {
	b, err := repo.FindActive(ctx, userID, category, period)
	if errors.Is(err, ErrBudgetNotFound) {
		e.record(ctx, "no_budget")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	if !b.Active {
		e.record(ctx, "no_budget")
		return nil, nil
	}

	if b.WouldExceed(amount) {
		e.record(ctx, "exceeded")
		return nil, fmt.Errorf("%w %q (%s): limit %s, spent %s, requested %s",
			ErrBudgetExceeded, b.Category, b.Period, b.Limit.StringFixed(2), b.Spent.StringFixed(2), amount.StringFixed(2))
	}

	e.record(ctx, "allowed")
	return b, nil
}

// Commit adds an authorized debit to the budget's spent total. It must run
// in the same unit of work as Authorize and the record insert.
func (e *Enforcer) Commit(ctx context.Context, repo Repository, b *Budget, amount decimal.Decimal) (*Budget, error) {
	updated, err := repo.AddSpent(ctx, b.ID, amount)
	if err != nil {
		if errors.Is(err, ErrBudgetExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to commit spend to budget %s: %w", b.ID, err)
	}
	return updated, nil
}

func (e *Enforcer) record(ctx context.Context, outcome string) {
	budgetChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// CrossedThreshold reports whether spending moved utilization from below
// threshold to at or above it.
func CrossedThreshold(before, after *Budget, threshold float64) bool {
	if before == nil || after == nil || threshold <= 0 {
		return false
	}
	t := decimal.NewFromFloat(threshold)
	return before.Utilization().LessThan(t) && !after.Utilization().LessThan(t)
}
