package bill

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/shared/apperror"
)

// Bill status values
const (
	StatusOpen      = "OPEN"
	StatusPaid      = "PAID"
	StatusOverdue   = "OVERDUE"
	StatusCancelled = "CANCELLED"
)

var billStatuses = map[string]struct{}{
	StatusOpen:      {},
	StatusPaid:      {},
	StatusOverdue:   {},
	StatusCancelled: {},
}

// Domain errors
var (
	ErrBillNotFound    = fmt.Errorf("bill %w", apperror.ErrNotFound)
	ErrAlreadyPaid     = fmt.Errorf("%w: bill is already paid", apperror.ErrValidation)
	ErrNotPayable      = fmt.Errorf("%w: bill cannot be paid in its current status", apperror.ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid bill status", apperror.ErrValidation)
	ErrMissingBillType = fmt.Errorf("%w: bill type is required", apperror.ErrValidation)
	ErrMissingRef      = fmt.Errorf("%w: reference ID is required", apperror.ErrValidation)
)

// Bill is a payable utility or service bill owned by a user
type Bill struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"userId"`
	BillType      string          `json:"billType"` // electricity, water, mobile, ...
	Biller        string          `json:"biller"`
	ReferenceID   string          `json:"referenceId"`
	Provider      *string         `json:"provider,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	Status        string          `json:"status"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	TransactionID *string         `json:"transactionId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Payable reports whether the bill can still be paid.
func (b *Bill) Payable() error {
	switch b.Status {
	case StatusPaid:
		return ErrAlreadyPaid
	case StatusCancelled:
		return ErrNotPayable
	}
	return nil
}

// CreateParams contains parameters for creating a new bill
type CreateParams struct {
	ID          string
	UserID      int64
	BillType    string
	Biller      string
	ReferenceID string
	Provider    *string
	Amount      decimal.Decimal
	DueDate     *time.Time
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: valid user ID is required", apperror.ErrValidation)
	}
	if strings.TrimSpace(p.BillType) == "" {
		return ErrMissingBillType
	}
	if strings.TrimSpace(p.ReferenceID) == "" {
		return ErrMissingRef
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", apperror.ErrValidation)
	}
	return nil
}

// PaymentDescription builds the ledger description for paying a bill:
// "<billType> bill payment - <provider> (ref <referenceID>)".
func PaymentDescription(billType string, provider *string, referenceID string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(billType))
	b.WriteString(" bill payment")
	if provider != nil && strings.TrimSpace(*provider) != "" {
		b.WriteString(" - ")
		b.WriteString(strings.TrimSpace(*provider))
	}
	if ref := strings.TrimSpace(referenceID); ref != "" {
		b.WriteString(" (ref ")
		b.WriteString(ref)
		b.WriteString(")")
	}
	return b.String()
}

// IsValidStatus checks if the provided status is valid
func IsValidStatus(s string) bool {
	_, ok := billStatuses[s]
	return ok
}
