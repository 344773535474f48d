package reward

import (
	"context"
	"fmt"
	"strings"
)

// Awarder grants reward points. Callers treat failures as non-fatal.
type Awarder interface {
	Grant(ctx context.Context, userID int64, program string, points int64) error
}

// Service implements Awarder on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a new reward service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Grant adds points to the user's balance in program.
func (s *Service) Grant(ctx context.Context, userID int64, program string, points int64) error {
	params := GrantParams{UserID: userID, Program: strings.TrimSpace(program), Points: points}
	if err := params.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.AddPoints(ctx, params); err != nil {
		return fmt.Errorf("failed to grant %d points in %q: %w", points, params.Program, err)
	}
	return nil
}

// Balances lists a user's balances across programs.
func (s *Service) Balances(ctx context.Context, userID int64) ([]*Balance, error) {
	return s.repo.ListByUserID(ctx, userID)
}
