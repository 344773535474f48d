package account

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"bankdash/internal/shared/apperror"
)

var (
	// Common ISO 4217 currency codes
	validCurrencies = map[string]struct{}{
		"INR": {}, "USD": {}, "EUR": {}, "GBP": {}, "JPY": {},
		"CHF": {}, "CAD": {}, "AUD": {}, "NZD": {}, "CNY": {},
		"BRL": {}, "MXN": {}, "ZAR": {}, "SEK": {}, "NOK": {},
		"DKK": {}, "PLN": {}, "SGD": {}, "HKD": {}, "AED": {},
	}
)

const (
	// MinNumberSuffix is the shortest trailing-digit run accepted when
	// resolving an account from a masked number.
	MinNumberSuffix = 4

	maskVisibleDigits = 4
)

// Domain errors
var (
	ErrAccountNotFound   = fmt.Errorf("account %w", apperror.ErrNotFound)
	ErrInsufficientFunds = fmt.Errorf("%w on account", apperror.ErrInsufficientFunds)
	ErrInvalidPIN        = fmt.Errorf("%w: invalid PIN", apperror.ErrUnauthorized)
	ErrInvalidCurrency   = fmt.Errorf("%w: valid ISO 4217 currency is required", apperror.ErrValidation)
	ErrInvalidPINFormat  = fmt.Errorf("%w: PIN must be 4 to 6 digits", apperror.ErrValidation)
	ErrInvalidAccountNo  = fmt.Errorf("%w: account number must contain at least %d digits", apperror.ErrValidation, MinNumberSuffix)
	ErrZeroDelta         = fmt.Errorf("%w: balance delta cannot be zero", apperror.ErrValidation)
)

// Account holds the authoritative balance of a user's bank account.
// Balance only changes through the ledger.
type Account struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"userId"`
	Name          string          `json:"name"`
	BankName      string          `json:"bankName"`
	AccountNumber string          `json:"-"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	PINHash       string          `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// MaskedNumber returns the account number with everything but the last
// four digits replaced, e.g. XXXXXXXX1234.
func (a *Account) MaskedNumber() string {
	n := len(a.AccountNumber)
	if n <= maskVisibleDigits {
		return a.AccountNumber
	}
	return strings.Repeat("X", n-maskVisibleDigits) + a.AccountNumber[n-maskVisibleDigits:]
}

// CreateParams contains parameters for opening a new account
type CreateParams struct {
	ID            string
	UserID        int64
	Name          string
	BankName      string
	AccountNumber string
	Currency      string
	PIN           string
	PINHash       string // set by the service after hashing PIN
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: valid user ID is required", apperror.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: account name is required", apperror.ErrValidation)
	}
	if len(digitsOnly(p.AccountNumber)) < MinNumberSuffix || len(digitsOnly(p.AccountNumber)) != len(p.AccountNumber) {
		return ErrInvalidAccountNo
	}
	if !IsValidCurrency(p.Currency) {
		return ErrInvalidCurrency
	}
	if !IsValidPIN(p.PIN) {
		return ErrInvalidPINFormat
	}
	return nil
}

// IsValidCurrency checks if the provided currency is a valid ISO 4217 code.
func IsValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	_, ok := validCurrencies[c]
	return ok
}

// IsValidPIN checks that a PIN is 4 to 6 ASCII digits.
func IsValidPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	return len(digitsOnly(pin)) == len(pin)
}

// NumberSuffix extracts the trailing digits of a masked or plain account
// number ("XXXX-XXXX-1234" -> "1234"). Returns "" if fewer than
// MinNumberSuffix trailing digits are present.
func NumberSuffix(masked string) string {
	masked = strings.TrimSpace(masked)
	end := len(masked)
	start := end
	for start > 0 && masked[start-1] >= '0' && masked[start-1] <= '9' {
		start--
	}
	if end-start < MinNumberSuffix {
		return ""
	}
	return masked[start:end]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
