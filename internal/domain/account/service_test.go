package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bankdash/internal/shared/apperror"
)

func TestOpenAccount(t *testing.T) {
	ctx := context.Background()

	var stored CreateParams
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, params CreateParams) (*Account, error) {
			stored = params
			return &Account{ID: "acc-1", UserID: params.UserID, Currency: params.Currency, PINHash: params.PINHash}, nil
		},
	}

	acc, err := NewService(repo).OpenAccount(ctx, CreateParams{
		UserID:        7,
		Name:          "Salary",
		AccountNumber: "998877665544",
		Currency:      "inr",
		PIN:           "2468",
	})
	require.NoError(t, err)

	assert.Equal(t, "INR", acc.Currency)
	assert.Empty(t, stored.PIN, "plain PIN must not reach the repository")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PINHash), []byte("2468")))
}

func TestOpenAccount_DefaultCurrency(t *testing.T) {
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, params CreateParams) (*Account, error) {
			return &Account{Currency: params.Currency}, nil
		},
	}

	acc, err := NewService(repo).OpenAccount(context.Background(), CreateParams{
		UserID: 1, Name: "Main", AccountNumber: "12345678", PIN: "1111",
	})
	require.NoError(t, err)
	assert.Equal(t, "INR", acc.Currency)
}

func TestOpenAccount_ValidationError(t *testing.T) {
	called := false
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, params CreateParams) (*Account, error) {
			called = true
			return nil, nil
		},
	}

	_, err := NewService(repo).OpenAccount(context.Background(), CreateParams{UserID: 1, Name: "Main", AccountNumber: "12345678", PIN: "x"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.False(t, called)
}

func TestGetOwnedAccount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  int64
		mock    func() *MockRepository
		wantErr error
	}{
		{
			name:   "Success",
			userID: 1,
			mock: func() *MockRepository {
				return &MockRepository{
					GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
						return &Account{ID: id, UserID: 1}, nil
					},
				}
			},
		},
		{
			name:    "Not Found",
			userID:  1,
			mock:    func() *MockRepository { return &MockRepository{} },
			wantErr: ErrAccountNotFound,
		},
		{
			name:   "Other owner is reported as not found",
			userID: 2,
			mock: func() *MockRepository {
				return &MockRepository{
					GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
						return &Account{ID: id, UserID: 1}, nil
					},
				}
			},
			wantErr: ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := NewService(tt.mock()).GetOwnedAccount(ctx, "acc-123", tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, apperror.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "acc-123", acc.ID)
		})
	}
}

func TestListAccounts_InvalidUser(t *testing.T) {
	_, err := NewService(&MockRepository{}).ListAccounts(context.Background(), 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
