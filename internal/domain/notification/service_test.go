package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdash/internal/shared/apperror"
)

var debitMsg = Message{
	Title:    "Debit",
	Body:     "INR 100.00 debited",
	Category: CategoryTransactions,
	Data:     map[string]string{"transactionId": "rec-1"},
}

func TestSendToUser_PushesAndStores(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	_, _ = repo.SaveDevice(ctx, DeviceRegistration{UserID: 1, Token: "tok-a", Platform: "ios"})
	_, _ = repo.SaveDevice(ctx, DeviceRegistration{UserID: 1, Token: "tok-b", Platform: "android"})
	_, _ = repo.SaveDevice(ctx, DeviceRegistration{UserID: 2, Token: "tok-c", Platform: "ios"})
	m := &fakeMessenger{}

	require.NoError(t, NewService(repo, m).SendToUser(ctx, 1, debitMsg))

	require.Len(t, m.sent, 1)
	assert.Equal(t, []string{"tok-a", "tok-b"}, m.sent[0].tokens)
	assert.Equal(t, "transactions", m.sent[0].push.Data["route"])
	assert.Equal(t, "rec-1", m.sent[0].push.Data["transactionId"])

	require.Len(t, repo.inbox, 1)
	assert.Equal(t, "INR 100.00 debited", repo.inbox[0].Body)
	assert.NotContains(t, debitMsg.Data, "route")
}

func TestSendToUser_MutedCategory(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	off := false
	_, _ = repo.SavePreferences(ctx, 1, PreferenceUpdate{Transactions: &off})
	_, _ = repo.SaveDevice(ctx, DeviceRegistration{UserID: 1, Token: "tok-a", Platform: "ios"})
	m := &fakeMessenger{}

	require.NoError(t, NewService(repo, m).SendToUser(ctx, 1, debitMsg))
	assert.Empty(t, m.sent)
	assert.Empty(t, repo.inbox)

	transfer := debitMsg
	transfer.Category = CategoryTransfers
	require.NoError(t, NewService(repo, m).SendToUser(ctx, 1, transfer))
	assert.Len(t, m.sent, 1)
}

func TestSendToUser_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("push error is logged only", func(t *testing.T) {
		repo := newMemRepo()
		_, _ = repo.SaveDevice(ctx, DeviceRegistration{UserID: 1, Token: "tok-a", Platform: "ios"})
		err := NewService(repo, &fakeMessenger{err: errors.New("fcm unavailable")}).SendToUser(ctx, 1, debitMsg)
		assert.NoError(t, err)
		assert.Len(t, repo.inbox, 1)
	})

	t.Run("inbox error is logged only", func(t *testing.T) {
		repo := newMemRepo()
		repo.saveErr = errors.New("disk full")
		assert.NoError(t, NewService(repo, nil).SendToUser(ctx, 1, debitMsg))
	})

	t.Run("preference lookup error is returned", func(t *testing.T) {
		repo := newMemRepo()
		repo.prefsErr = errors.New("connection reset")
		assert.ErrorContains(t, NewService(repo, nil).SendToUser(ctx, 1, debitMsg), "connection reset")
	})

	t.Run("no messenger still stores", func(t *testing.T) {
		repo := newMemRepo()
		require.NoError(t, NewService(repo, nil).SendToUser(ctx, 1, debitMsg))
		assert.Len(t, repo.inbox, 1)
	})
}

func TestSendToUser_Rejects(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SendToUser(ctx, 1, Message{Title: "t", Body: "b", Category: "spam"}), ErrInvalidCategory)
	assert.ErrorIs(t, svc.SendToUser(ctx, 0, debitMsg), ErrInvalidUser)
	assert.ErrorIs(t, svc.SendToUser(ctx, 1, Message{Category: CategoryBills}), apperror.ErrValidation)
}

func TestRegisterDevice(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	dev, err := svc.RegisterDevice(ctx, DeviceRegistration{UserID: 1, Token: "t", Platform: "ios"})
	require.NoError(t, err)
	assert.True(t, dev.Active)
	assert.Contains(t, repo.prefs, int64(1))

	tests := []struct {
		name string
		reg  DeviceRegistration
		want error
	}{
		{"no user", DeviceRegistration{Token: "t", Platform: "ios"}, ErrInvalidUser},
		{"no token", DeviceRegistration{UserID: 1, Platform: "ios"}, ErrInvalidToken},
		{"bad platform", DeviceRegistration{UserID: 1, Token: "t", Platform: "windows"}, ErrInvalidDeviceType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterDevice(ctx, tt.reg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPreferences(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	prefs, err := svc.GetPreferences(ctx, 5)
	require.NoError(t, err)
	for _, c := range Categories {
		assert.True(t, prefs.Allows(c), c)
	}
	assert.False(t, prefs.Allows("unknown"))

	off := false
	updated, err := svc.UpdatePreferences(ctx, 5, PreferenceUpdate{Budgets: &off})
	require.NoError(t, err)
	assert.False(t, updated.Budgets)
	assert.True(t, updated.Bills)

	_, err = svc.GetPreferences(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{0, 0, 1, 20},
		{3, 50, 3, 50},
		{-1, 101, 1, 20},
		{2, 100, 2, 100},
	}
	for _, tt := range tests {
		p, pp := ClampPage(tt.page, tt.perPage)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantPerPage, pp)
	}
}
