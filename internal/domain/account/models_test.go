package account

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"bankdash/internal/shared/apperror"
)

func TestIsValidCurrency(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"INR", true},
		{"USD", true},
		{"EUR", true},
		{"usd", false},
		{"US", false},
		{"XYZ", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCurrency(tt.input))
		})
	}
}

func TestIsValidPIN(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1234", true},
		{"123456", true},
		{"123", false},
		{"1234567", false},
		{"12a4", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPIN(tt.input))
		})
	}
}

func TestNumberSuffix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"XXXXXXXX1234", "1234"},
		{"XXXX-XXXX-5678", "5678"},
		{"  ****98765 ", "98765"},
		{"123456789012", "123456789012"},
		{"XXXX123", ""},
		{"1234XXXX", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NumberSuffix(tt.input))
		})
	}
}

func TestAccount_MaskedNumber(t *testing.T) {
	acc := &Account{AccountNumber: "123456789012"}
	assert.Equal(t, "XXXXXXXX9012", acc.MaskedNumber())

	short := &Account{AccountNumber: "1234"}
	assert.Equal(t, "1234", short.MaskedNumber())
}

func TestCreateParams_Validate(t *testing.T) {
	valid := CreateParams{
		UserID:        1,
		Name:          "Savings",
		AccountNumber: "123456789012",
		Currency:      "INR",
		PIN:           "1234",
	}

	tests := []struct {
		name    string
		mutate  func(p *CreateParams)
		wantErr error
	}{
		{"valid params", func(p *CreateParams) {}, nil},
		{"invalid user ID", func(p *CreateParams) { p.UserID = 0 }, apperror.ErrValidation},
		{"missing name", func(p *CreateParams) { p.Name = "  " }, apperror.ErrValidation},
		{"short account number", func(p *CreateParams) { p.AccountNumber = "123" }, ErrInvalidAccountNo},
		{"non-digit account number", func(p *CreateParams) { p.AccountNumber = "1234-5678" }, ErrInvalidAccountNo},
		{"invalid currency", func(p *CreateParams) { p.Currency = "XYZ" }, ErrInvalidCurrency},
		{"invalid PIN", func(p *CreateParams) { p.PIN = "12" }, ErrInvalidPINFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestVerifyPIN(t *testing.T) {
	hash, err := HashPIN("4321")
	assert.NoError(t, err)
	assert.NotEqual(t, "4321", hash)

	acc := &Account{PINHash: hash}
	assert.NoError(t, acc.VerifyPIN("4321"))
	assert.ErrorIs(t, acc.VerifyPIN("1234"), ErrInvalidPIN)
	assert.ErrorIs(t, acc.VerifyPIN(""), ErrInvalidPIN)
	assert.ErrorIs(t, acc.VerifyPIN("4321"), apperror.ErrUnauthorized)

	noPIN := &Account{}
	assert.ErrorIs(t, noPIN.VerifyPIN("4321"), ErrInvalidPIN)
}
