package firebase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdash/internal/domain/notification"
)

var (
	_ notification.Messenger = (*Client)(nil)
	_ notification.Messenger = (*BreakerMessenger)(nil)
)

type fakeFCM struct {
	mu      sync.Mutex
	batches []*messaging.MulticastMessage
	err     error
	failAt  map[int]error // index within a batch
}

func (f *fakeFCM) SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, msg)

	resp := &messaging.BatchResponse{}
	for i := range msg.Tokens {
		if err, ok := f.failAt[i]; ok {
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: err})
			resp.FailureCount++
			continue
		}
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: fmt.Sprint(i)})
		resp.SuccessCount++
	}
	return resp, nil
}

func tokens(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("tok-%d", i)
	}
	return out
}

var debit = notification.Push{Title: "Debit", Body: "INR 10.00 debited", Data: map[string]string{"route": "transactions"}}

func TestSend_SplitsIntoBatches(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{0, nil},
		{1, []int{1}},
		{500, []int{500}},
		{1201, []int{500, 500, 201}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			fcm := &fakeFCM{}
			require.NoError(t, newClient(fcm, nil, zerolog.Nop()).Send(context.Background(), tokens(tt.n), debit))

			var sizes []int
			for _, b := range fcm.batches {
				sizes = append(sizes, len(b.Tokens))
				assert.Equal(t, "Debit", b.Notification.Title)
				assert.Equal(t, "transactions", b.Data["route"])
			}
			assert.Equal(t, tt.want, sizes)
		})
	}
}

func TestSend_RequestError(t *testing.T) {
	fcm := &fakeFCM{err: errors.New("quota exceeded")}
	err := newClient(fcm, nil, zerolog.Nop()).Send(context.Background(), tokens(3), debit)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestSend_TransientFailureKeepsToken(t *testing.T) {
	fcm := &fakeFCM{failAt: map[int]error{1: errors.New("internal")}}
	var deactivated []string
	c := newClient(fcm, func(ctx context.Context, token string) error {
		deactivated = append(deactivated, token)
		return nil
	}, zerolog.Nop())

	require.NoError(t, c.Send(context.Background(), tokens(3), debit))
	assert.Empty(t, deactivated)
}

type flakyMessenger struct {
	calls int
	err   error
}

func (m *flakyMessenger) Send(ctx context.Context, tokens []string, p notification.Push) error {
	m.calls++
	return m.err
}

func TestBreakerMessenger_TripsAfterFailures(t *testing.T) {
	next := &flakyMessenger{err: errors.New("fcm down")}
	b := NewBreakerMessenger(next, BreakerSettings{ConsecutiveFailures: 3, OpenTimeout: time.Hour}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := b.Send(ctx, []string{"t"}, debit)
		assert.ErrorContains(t, err, "fcm down")
	}
	assert.Equal(t, "open", b.State())

	err := b.Send(ctx, []string{"t"}, debit)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, next.calls, "open breaker does not call through")
}

func TestBreakerMessenger_RecoversAfterTimeout(t *testing.T) {
	next := &flakyMessenger{err: errors.New("fcm down")}
	b := NewBreakerMessenger(next, BreakerSettings{ConsecutiveFailures: 1, OpenTimeout: 20 * time.Millisecond}, zerolog.Nop())
	ctx := context.Background()

	assert.Error(t, b.Send(ctx, []string{"t"}, debit))
	assert.Equal(t, "open", b.State())

	time.Sleep(40 * time.Millisecond)
	next.err = nil
	require.NoError(t, b.Send(ctx, []string{"t"}, debit))
	assert.Equal(t, "closed", b.State())
}

func TestBreakerMessenger_Defaults(t *testing.T) {
	next := &flakyMessenger{}
	b := NewBreakerMessenger(next, BreakerSettings{}, zerolog.Nop())

	require.NoError(t, b.Send(context.Background(), []string{"t"}, debit))
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "closed", b.State())
}
