package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/bill"
	"bankdash/internal/domain/transaction"
	"bankdash/internal/shared/apperror"
)

// PayBillRequest settles a bill from one of the caller's accounts.
type PayBillRequest struct {
	BillID      string
	AccountID   string
	UserID      int64
	Amount      decimal.Decimal
	PIN         string
	BillType    string
	ReferenceID string
	Provider    *string
}

// Validate checks the request shape.
func (r PayBillRequest) Validate() error {
	if strings.TrimSpace(r.BillID) == "" || strings.TrimSpace(r.AccountID) == "" {
		return fmt.Errorf("%w: bill and account are required", apperror.ErrValidation)
	}
	if !r.Amount.IsPositive() {
		return transaction.ErrInvalidAmount
	}
	if strings.TrimSpace(r.BillType) == "" {
		return bill.ErrMissingBillType
	}
	if strings.TrimSpace(r.ReferenceID) == "" {
		return bill.ErrMissingRef
	}
	if r.PIN == "" {
		return fmt.Errorf("%w: PIN is required", apperror.ErrValidation)
	}
	return nil
}

// BillPayer posts the debit for a bill payment.
type BillPayer struct {
	recorder *Recorder
}

// NewBillPayer creates a bill payer that posts through recorder.
func NewBillPayer(recorder *Recorder) *BillPayer {
	return &BillPayer{recorder: recorder}
}

// Execute authenticates the PIN on the paying account and records the
// debit inside uow. Marking the bill paid is left to the caller.
func (p *BillPayer) Execute(ctx context.Context, uow UnitOfWork, req PayBillRequest, b *bill.Bill) (*Posting, error) {
	locked, err := uow.Accounts().LockForUpdate(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	acc, ok := locked[req.AccountID]
	if !ok || acc.UserID != req.UserID {
		return nil, account.ErrAccountNotFound
	}
	if err := acc.VerifyPIN(req.PIN); err != nil {
		return nil, err
	}

	provider := req.Provider
	if provider == nil || strings.TrimSpace(*provider) == "" {
		provider = b.Provider
	}
	if provider == nil && b.Biller != "" {
		provider = &b.Biller
	}
	description := bill.PaymentDescription(req.BillType, provider, req.ReferenceID)

	return p.recorder.Record(ctx, uow, Entry{
		AccountID:   acc.ID,
		UserID:      acc.UserID,
		Type:        transaction.TypeDebit,
		Amount:      req.Amount,
		Category:    transaction.Classify(description),
		Description: description,
	})
}
