package transfer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/transaction"
	"bankdash/internal/shared/apperror"
)

// Kind is the destination class of a transfer.
type Kind string

const (
	KindSelf Kind = "self"
	KindBank Kind = "bank"
	KindUPI  Kind = "upi"
)

// StatusSuccess is the only status a completed transfer reports.
const StatusSuccess = "success"

// Domain errors
var (
	ErrInvalidAmount = fmt.Errorf("%w: amount must be greater than zero", apperror.ErrValidation)
	ErrInvalidKind   = fmt.Errorf("%w: transfer kind must be self, bank or upi", apperror.ErrValidation)
	ErrMissingTarget = fmt.Errorf("%w: transfer target is required", apperror.ErrValidation)
	ErrMissingPIN    = fmt.Errorf("%w: PIN is required", apperror.ErrValidation)
	ErrInvalidUPI    = fmt.Errorf("%w: UPI handle must look like name@bank or be numeric", apperror.ErrValidation)
	ErrSameAccount   = fmt.Errorf("%w: source and target accounts are the same", apperror.ErrInvalidTransferTarget)
	ErrNotOwnTarget  = fmt.Errorf("%w: target must be another account you own", apperror.ErrInvalidTransferTarget)
	ErrAmbiguous     = fmt.Errorf("%w: account number matches more than one account", apperror.ErrInvalidTransferTarget)
	ErrShortNumber   = fmt.Errorf("%w: account number must end with at least 4 digits", apperror.ErrInvalidTransferTarget)
	ErrKeyReused     = fmt.Errorf("%w: idempotency key was already used for a different transfer", apperror.ErrValidation)
)

var upiHandle = regexp.MustCompile(`^[A-Za-z0-9._-]{2,256}@[A-Za-z][A-Za-z0-9]{1,63}$`)

// ParseKind normalizes a user supplied kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSelf, KindBank, KindUPI:
		return k, nil
	}
	return "", ErrInvalidKind
}

// Category returns the ledger category for transfers of kind k.
func (k Kind) Category() string {
	switch k {
	case KindUPI:
		return transaction.CategoryPayments
	case KindBank:
		return transaction.CategoryTransfers
	default:
		return transaction.CategorySelfTransfer
	}
}

// Internal reports whether money stays inside the system (a credit leg exists).
func (k Kind) Internal() bool {
	return k == KindSelf || k == KindBank
}

// Request asks to move Amount out of SourceAccountID.
// Target is an account ID for self, a (masked) account number for bank and
// a UPI handle for upi.
type Request struct {
	SourceAccountID string          `json:"sourceAccountId"`
	UserID          int64           `json:"-"`
	Amount          decimal.Decimal `json:"amount"`
	PIN             string          `json:"-"`
	Kind            Kind            `json:"kind"`
	Target          string          `json:"target"`
	IdempotencyKey  string          `json:"-"`
}

// Validate checks the request shape. Target resolution happens later.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.SourceAccountID) == "" {
		return fmt.Errorf("%w: source account is required", apperror.ErrValidation)
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(r.Target) == "" {
		return ErrMissingTarget
	}
	if r.PIN == "" {
		return ErrMissingPIN
	}
	if r.Kind == KindUPI && !ValidUPIHandle(r.Target) {
		return ErrInvalidUPI
	}
	return nil
}

// Fingerprint identifies what r asks for: source, kind, target and amount.
// Retries of one transfer share a fingerprint; PIN and key are excluded.
func (r *Request) Fingerprint() string {
	kind, _ := ParseKind(string(r.Kind))
	target := strings.TrimSpace(r.Target)
	if kind == KindUPI {
		target = strings.ToLower(target)
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		strings.TrimSpace(r.SourceAccountID),
		string(kind),
		target,
		r.Amount.StringFixed(2),
	}, "\x00")))
	return hex.EncodeToString(sum[:])
}

// ValidUPIHandle accepts name@bank handles and purely numeric handles.
func ValidUPIHandle(s string) bool {
	s = strings.TrimSpace(s)
	if upiHandle.MatchString(s) {
		return true
	}
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Result is returned to the caller and replayed for duplicate requests.
type Result struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	TransferID     string `json:"transferId"`
	DebitRecordID  string `json:"debitRecordId"`
	CreditRecordID string `json:"creditRecordId,omitempty"`
	Replayed       bool   `json:"replayed,omitempty"`

	// Fingerprint of the originating request. Set only on the copy kept by
	// an IdempotencyStore.
	Fingerprint string `json:"fingerprint,omitempty"`
}
