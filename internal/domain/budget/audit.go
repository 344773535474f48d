package budget

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// SpendSource totals the debits recorded against a budget.
type SpendSource interface {
	SumDebitsByBudget(ctx context.Context, budgetID string) (decimal.Decimal, error)
}

// Drift is an active budget whose stored spent disagrees with its records.
type Drift struct {
	Budget   *Budget
	Recorded decimal.Decimal
}

// Delta is stored spent minus recorded debits.
func (d Drift) Delta() decimal.Decimal {
	return d.Budget.Spent.Sub(d.Recorded)
}

// Audit recomputes spent for every active budget from src. With fix set,
// drifted budgets are overwritten with the recorded total.
func (s *Service) Audit(ctx context.Context, src SpendSource, fix bool) ([]Drift, error) {
	budgets, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active budgets: %w", err)
	}

	var drifts []Drift
	for _, b := range budgets {
		recorded, err := src.SumDebitsByBudget(ctx, b.ID)
		if err != nil {
			return drifts, fmt.Errorf("failed to sum debits for budget %s: %w", b.ID, err)
		}
		if recorded.Equal(b.Spent) {
			continue
		}
		drifts = append(drifts, Drift{Budget: b, Recorded: recorded})

		if fix {
			if err := s.repo.SetSpent(ctx, b.ID, recorded); err != nil {
				return drifts, fmt.Errorf("failed to correct budget %s: %w", b.ID, err)
			}
		}
	}
	return drifts, nil
}
