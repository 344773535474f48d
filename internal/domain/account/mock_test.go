package account

import (
	"context"

	"github.com/shopspring/decimal"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	CreateFunc             func(ctx context.Context, params CreateParams) (*Account, error)
	GetByIDFunc            func(ctx context.Context, id string) (*Account, error)
	ListByUserIDFunc       func(ctx context.Context, userID int64) ([]*Account, error)
	FindByNumberSuffixFunc func(ctx context.Context, suffix string) ([]*Account, error)
	LockForUpdateFunc      func(ctx context.Context, ids ...string) (map[string]*Account, error)
	AdjustBalanceFunc      func(ctx context.Context, id string, delta decimal.Decimal) (*Account, error)
}

func (m *MockRepository) Create(ctx context.Context, params CreateParams) (*Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrAccountNotFound
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID int64) ([]*Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) FindByNumberSuffix(ctx context.Context, suffix string) ([]*Account, error) {
	if m.FindByNumberSuffixFunc != nil {
		return m.FindByNumberSuffixFunc(ctx, suffix)
	}
	return nil, nil
}

func (m *MockRepository) LockForUpdate(ctx context.Context, ids ...string) (map[string]*Account, error) {
	if m.LockForUpdateFunc != nil {
		return m.LockForUpdateFunc(ctx, ids...)
	}
	return map[string]*Account{}, nil
}

func (m *MockRepository) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (*Account, error) {
	if m.AdjustBalanceFunc != nil {
		return m.AdjustBalanceFunc(ctx, id, delta)
	}
	return nil, ErrAccountNotFound
}
