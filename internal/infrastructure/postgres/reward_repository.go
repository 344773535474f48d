package postgres

import (
	"context"
	"fmt"

	"bankdash/internal/domain/reward"
)

type RewardRepository struct {
	db *DB
}

func NewRewardRepository(db *DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) AddPoints(ctx context.Context, params reward.GrantParams) (*reward.Balance, error) {
	query := `
		INSERT INTO reward_balances (user_id, program, points)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, program) DO UPDATE
			SET points = reward_balances.points + EXCLUDED.points,
			    updated_at = NOW()
		RETURNING user_id, program, points, updated_at
	`

	var b reward.Balance
	err := r.db.QueryRowContext(ctx, query, params.UserID, params.Program, params.Points).Scan(
		&b.UserID, &b.Program, &b.Points, &b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add reward points: %w", err)
	}
	return &b, nil
}

func (r *RewardRepository) ListByUserID(ctx context.Context, userID int64) ([]*reward.Balance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, program, points, updated_at FROM reward_balances WHERE user_id = $1 ORDER BY program`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reward balances: %w", err)
	}
	defer rows.Close()

	var balances []*reward.Balance
	for rows.Next() {
		var b reward.Balance
		if err := rows.Scan(&b.UserID, &b.Program, &b.Points, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward balance: %w", err)
		}
		balances = append(balances, &b)
	}
	return balances, rows.Err()
}
