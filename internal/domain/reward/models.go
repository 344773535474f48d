package reward

import (
	"fmt"
	"strings"
	"time"

	"bankdash/internal/shared/apperror"
)

var ErrInvalidGrant = fmt.Errorf("%w: program name and positive points are required", apperror.ErrValidation)

// Balance is a user's accumulated points in one reward program.
type Balance struct {
	UserID    int64     `json:"userId"`
	Program   string    `json:"program"`
	Points    int64     `json:"points"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GrantParams describes a points grant.
type GrantParams struct {
	UserID  int64
	Program string
	Points  int64
}

// Validate validates the grant parameters
func (p GrantParams) Validate() error {
	if p.UserID <= 0 || strings.TrimSpace(p.Program) == "" || p.Points <= 0 {
		return ErrInvalidGrant
	}
	return nil
}
