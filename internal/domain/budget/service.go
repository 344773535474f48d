package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service contains the business logic for the budget lifecycle
type Service struct {
	repo Repository
}

// NewService creates a new budget service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create opens a budget. Only one active budget may exist per owner,
// category and period.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Budget, error) {
	params.Category = strings.TrimSpace(params.Category)
	params.Limit = params.Limit.Round(2)
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindActive(ctx, params.UserID, params.Category, params.Period)
	if err != nil && !errors.Is(err, ErrBudgetNotFound) {
		return nil, fmt.Errorf("failed to check existing budgets: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateBudget
	}

	if params.ID == "" {
		params.ID = uuid.NewString()
	}
	return s.repo.Create(ctx, params)
}

// Get returns a budget owned by userID.
func (s *Service) Get(ctx context.Context, id string, userID int64) (*Budget, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrBudgetNotFound
	}
	return b, nil
}

// List returns every budget belonging to userID.
func (s *Service) List(ctx context.Context, userID int64) ([]*Budget, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Update applies a typed patch to an owned, active budget.
func (s *Service) Update(ctx context.Context, id string, userID int64, patch PatchParams) (*Budget, error) {
	b, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !b.Active {
		return nil, ErrBudgetNotFound
	}
	if patch.IsEmpty() {
		return b, nil
	}
	if err := patch.Apply(b); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, b)
}

// Deactivate soft-deletes an owned budget.
func (s *Service) Deactivate(ctx context.Context, id string, userID int64) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, id)
}
