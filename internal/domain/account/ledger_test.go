package account

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_AdjustBalance(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		delta       decimal.Decimal
		mock        func() *MockRepository
		wantBalance string
		wantErr     error
	}{
		{
			name:  "credit",
			delta: decimal.RequireFromString("100.00"),
			mock: func() *MockRepository {
				return &MockRepository{
					AdjustBalanceFunc: func(ctx context.Context, id string, delta decimal.Decimal) (*Account, error) {
						return &Account{ID: id, Balance: decimal.RequireFromString("600").Add(delta)}, nil
					},
				}
			},
			wantBalance: "700",
		},
		{
			name:  "debit rounds to cents",
			delta: decimal.RequireFromString("-100.004"),
			mock: func() *MockRepository {
				return &MockRepository{
					AdjustBalanceFunc: func(ctx context.Context, id string, delta decimal.Decimal) (*Account, error) {
						return &Account{ID: id, Balance: decimal.RequireFromString("500").Add(delta)}, nil
					},
				}
			},
			wantBalance: "400",
		},
		{
			name:    "zero delta",
			delta:   decimal.Zero,
			mock:    func() *MockRepository { return &MockRepository{} },
			wantErr: ErrZeroDelta,
		},
		{
			name:  "insufficient funds",
			delta: decimal.RequireFromString("-600"),
			mock: func() *MockRepository {
				return &MockRepository{
					AdjustBalanceFunc: func(ctx context.Context, id string, delta decimal.Decimal) (*Account, error) {
						return nil, ErrInsufficientFunds
					},
				}
			},
			wantErr: ErrInsufficientFunds,
		},
		{
			name:    "unknown account",
			delta:   decimal.RequireFromString("10"),
			mock:    func() *MockRepository { return &MockRepository{} },
			wantErr: ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewLedger()
			balance, err := ledger.AdjustBalance(ctx, tt.mock(), "acc-1", tt.delta)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, balance.Equal(decimal.RequireFromString(tt.wantBalance)), "balance = %s", balance)
		})
	}
}

func TestLedger_AdjustBalance_WrapsRepositoryErrors(t *testing.T) {
	repo := &MockRepository{
		AdjustBalanceFunc: func(ctx context.Context, id string, delta decimal.Decimal) (*Account, error) {
			return nil, errors.New("connection reset")
		},
	}

	_, err := NewLedger().AdjustBalance(context.Background(), repo, "acc-9", decimal.NewFromInt(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acc-9")
	assert.Contains(t, err.Error(), "connection reset")
}
