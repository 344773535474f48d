package transfer

import (
	"context"
	"strconv"
	"time"
)

// IdempotencyStore deduplicates transfer requests by client key.
type IdempotencyStore interface {
	// Reserve claims key for a new attempt. If the key was already
	// completed, the stored result is returned with reserved == false. If
	// another attempt holds the key, both are nil/false.
	Reserve(ctx context.Context, key string, ttl time.Duration) (stored *Result, reserved bool, err error)

	// Complete stores the result of the attempt holding key.
	Complete(ctx context.Context, key string, result Result, ttl time.Duration) error

	// Release frees key after a failed attempt so the client may retry.
	Release(ctx context.Context, key string) error
}

// ScopedKey namespaces a client key per user.
func ScopedKey(userID int64, key string) string {
	return "idempotency:transfer:" + strconv.FormatInt(userID, 10) + ":" + key
}
