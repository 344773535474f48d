package transaction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdash/internal/shared/apperror"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		input   string
		want    Type
		wantErr bool
	}{
		{"debit", TypeDebit, false},
		{"CREDIT", TypeCredit, false},
		{" Debit ", TypeDebit, false},
		{"transfer", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_Signed(t *testing.T) {
	debit := &Record{Type: TypeDebit, Amount: decimal.RequireFromString("12.50")}
	credit := &Record{Type: TypeCredit, Amount: decimal.RequireFromString("12.50")}

	assert.True(t, debit.Signed().Equal(decimal.RequireFromString("-12.50")))
	assert.True(t, credit.Signed().Equal(decimal.RequireFromString("12.50")))
	assert.True(t, debit.Signed().Add(credit.Signed()).IsZero())
	assert.Equal(t, TypeCredit, TypeDebit.Opposite())
	assert.Equal(t, TypeDebit, TypeCredit.Opposite())
}

func TestCreateParams_Validate(t *testing.T) {
	valid := CreateParams{
		ID:         "rec-1",
		AccountID:  "acc-1",
		UserID:     1,
		Type:       TypeDebit,
		Amount:     decimal.NewFromInt(10),
		Category:   CategoryFood,
		OccurredOn: time.Now(),
	}

	tests := []struct {
		name    string
		mutate  func(p *CreateParams)
		wantErr error
	}{
		{"valid", func(p *CreateParams) {}, nil},
		{"missing account", func(p *CreateParams) { p.AccountID = "" }, apperror.ErrValidation},
		{"bad type", func(p *CreateParams) { p.Type = "refund" }, ErrInvalidType},
		{"zero amount", func(p *CreateParams) { p.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(p *CreateParams) { p.Amount = decimal.NewFromInt(-5) }, ErrInvalidAmount},
		{"missing category", func(p *CreateParams) { p.Category = "" }, apperror.ErrValidation},
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
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Limit: 0, Offset: -3}.Normalize()
	assert.Equal(t, DefaultPageSize, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = ListFilter{Limit: 10000}.Normalize()
	assert.Equal(t, MaxPageSize, f.Limit)
}
