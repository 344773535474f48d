package memory

import (
	"context"
	"sort"
	"strconv"

	"bankdash/internal/domain/reward"
)

// RewardRepository implements reward.Repository on a Store.
type RewardRepository struct {
	s *Store
}

// NewRewardRepository creates a reward repository over s.
func NewRewardRepository(s *Store) *RewardRepository {
	return &RewardRepository{s: s}
}

func rewardKey(userID int64, program string) string {
	return strconv.FormatInt(userID, 10) + "|" + program
}

func (r *RewardRepository) AddPoints(ctx context.Context, params reward.GrantParams) (*reward.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := rewardKey(params.UserID, params.Program)
	b, ok := r.s.rewards[key]
	if !ok {
		b = &reward.Balance{UserID: params.UserID, Program: params.Program}
		r.s.rewards[key] = b
	}
	b.Points += params.Points
	b.UpdatedAt = r.s.now()
	c := *b
	return &c, nil
}

func (r *RewardRepository) ListByUserID(ctx context.Context, userID int64) ([]*reward.Balance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*reward.Balance
	for _, b := range r.s.rewards {
		if b.UserID == userID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Program < out[j].Program })
	return out, nil
}
