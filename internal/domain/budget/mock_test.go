package budget

import (
	"context"

	"github.com/shopspring/decimal"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	CreateFunc       func(ctx context.Context, params CreateParams) (*Budget, error)
	GetByIDFunc      func(ctx context.Context, id string) (*Budget, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*Budget, error)
	ListActiveFunc   func(ctx context.Context) ([]*Budget, error)
	FindActiveFunc   func(ctx context.Context, userID int64, category string, period Period) (*Budget, error)
	AddSpentFunc     func(ctx context.Context, id string, amount decimal.Decimal) (*Budget, error)
	SaveFunc         func(ctx context.Context, b *Budget) (*Budget, error)
	SetSpentFunc     func(ctx context.Context, id string, spent decimal.Decimal) error
	DeactivateFunc   func(ctx context.Context, id string) error
}

func (m *MockRepository) Create(ctx context.Context, params CreateParams) (*Budget, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Budget, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrBudgetNotFound
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID int64) ([]*Budget, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) ListActive(ctx context.Context) ([]*Budget, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *MockRepository) FindActive(ctx context.Context, userID int64, category string, period Period) (*Budget, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, userID, category, period)
	}
	return nil, ErrBudgetNotFound
}

func (m *MockRepository) AddSpent(ctx context.Context, id string, amount decimal.Decimal) (*Budget, error) {
	if m.AddSpentFunc != nil {
		return m.AddSpentFunc(ctx, id, amount)
	}
	return nil, ErrBudgetNotFound
}

func (m *MockRepository) Save(ctx context.Context, b *Budget) (*Budget, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, b)
	}
	return b, nil
}

func (m *MockRepository) SetSpent(ctx context.Context, id string, spent decimal.Decimal) error {
	if m.SetSpentFunc != nil {
		return m.SetSpentFunc(ctx, id, spent)
	}
	return nil
}

func (m *MockRepository) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}
