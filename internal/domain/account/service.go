package account

import (
	"context"
	"fmt"
	"strings"

	"bankdash/internal/shared/apperror"
)

// Service contains the business logic for account operations outside of
// balance mutation.
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// OpenAccount creates a new zero-balance account with a hashed PIN.
// Funding happens afterwards through a credit transaction.
func (s *Service) OpenAccount(ctx context.Context, params CreateParams) (*Account, error) {
	if params.Currency == "" {
		params.Currency = "INR"
	}
	params.Currency = strings.ToUpper(params.Currency)

	if err := params.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPIN(params.PIN)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}
	params.PINHash = hash
	params.PIN = ""

	return s.repo.Create(ctx, params)
}

// GetOwnedAccount retrieves an account by ID and verifies user ownership.
// An account owned by someone else is reported as not found.
func (s *Service) GetOwnedAccount(ctx context.Context, accountID string, userID int64) (*Account, error) {
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if acc.UserID != userID {
		return nil, ErrAccountNotFound
	}

	return acc, nil
}

// ListAccounts retrieves all accounts for a specific user
func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]*Account, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: valid user ID is required", apperror.ErrValidation)
	}

	return s.repo.ListByUserID(ctx, userID)
}
