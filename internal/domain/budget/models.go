package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/shared/apperror"
)

// Domain errors
var (
	ErrBudgetNotFound  = fmt.Errorf("budget %w", apperror.ErrNotFound)
	ErrBudgetExceeded  = fmt.Errorf("%w for category", apperror.ErrBudgetExceeded)
	ErrDuplicateBudget = fmt.Errorf("%w: an active budget already exists for this category and period", apperror.ErrValidation)
	ErrInvalidLimit    = fmt.Errorf("%w: limit must be greater than zero", apperror.ErrValidation)
	ErrLimitBelowSpent = fmt.Errorf("%w: limit cannot be lower than the amount already spent", apperror.ErrValidation)
	ErrInvalidPeriod   = fmt.Errorf("%w: period month must be 1-12 and year positive", apperror.ErrValidation)
)

// Period is a calendar month bucket.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Valid reports whether p names a real month.
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year > 0
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Budget caps debit spending for an owner, category and period. Spent is
// the running total of debits the enforcer accepted against it.
type Budget struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"userId"`
	Category  string          `json:"category"`
	Period    Period          `json:"period"`
	Limit     decimal.Decimal `json:"limit"`
	Spent     decimal.Decimal `json:"spent"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Remaining returns how much can still be spent.
func (b *Budget) Remaining() decimal.Decimal {
	return b.Limit.Sub(b.Spent)
}

// WouldExceed reports whether spending amount would push spent past limit.
func (b *Budget) WouldExceed(amount decimal.Decimal) bool {
	return b.Spent.Add(amount).GreaterThan(b.Limit)
}

// Utilization returns spent/limit, zero for a zero limit.
func (b *Budget) Utilization() decimal.Decimal {
	if b.Limit.IsZero() {
		return decimal.Zero
	}
	return b.Spent.Div(b.Limit)
}

// SameCategory compares categories case-insensitively.
func SameCategory(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CreateParams contains parameters for creating a budget
type CreateParams struct {
	ID       string
	UserID   int64
	Category string
	Period   Period
	Limit    decimal.Decimal
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: valid user ID is required", apperror.ErrValidation)
	}
	if strings.TrimSpace(p.Category) == "" {
		return fmt.Errorf("%w: category is required", apperror.ErrValidation)
	}
	if !p.Period.Valid() {
		return ErrInvalidPeriod
	}
	if !p.Limit.IsPositive() {
		return ErrInvalidLimit
	}
	return nil
}

// PatchParams is a partial update. Nil fields are left unchanged.
type PatchParams struct {
	Limit *decimal.Decimal `json:"limit,omitempty"`
}

// Apply merges the patch into b, validating the result.
func (p PatchParams) Apply(b *Budget) error {
	if p.Limit != nil {
		limit := p.Limit.Round(2)
		if !limit.IsPositive() {
			return ErrInvalidLimit
		}
		if limit.LessThan(b.Spent) {
			return ErrLimitBelowSpent
		}
		b.Limit = limit
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p PatchParams) IsEmpty() bool {
	return p.Limit == nil
}
