package reward

import "context"

// Repository defines the interface for reward point data access
type Repository interface {
	// AddPoints increments the user's balance in the program, creating it
	// on first grant, and returns the new balance.
	AddPoints(ctx context.Context, params GrantParams) (*Balance, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Balance, error)
}
