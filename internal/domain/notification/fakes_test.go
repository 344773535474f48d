package notification

import (
	"context"
	"sync"
)

// memRepo is a minimal in-package Repository with optional failure hooks.
type memRepo struct {
	mu       sync.Mutex
	devices  []*Device
	prefs    map[int64]*Preferences
	inbox    []*Notification
	prefsErr error
	saveErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{prefs: map[int64]*Preferences{}}
}

func (r *memRepo) SaveDevice(ctx context.Context, reg DeviceRegistration) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &Device{UserID: reg.UserID, Token: reg.Token, Platform: reg.Platform, Active: true}
	r.devices = append(r.devices, d)
	return d, nil
}

func (r *memRepo) ActiveDevices(ctx context.Context, userID int64) ([]*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Device
	for _, d := range r.devices {
		if d.UserID == userID && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memRepo) DeactivateToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		if d.Token == token {
			d.Active = false
		}
	}
	return nil
}

func (r *memRepo) Preferences(ctx context.Context, userID int64) (*Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prefsErr != nil {
		return nil, r.prefsErr
	}
	p, ok := r.prefs[userID]
	if !ok {
		return nil, ErrPreferencesNotFound
	}
	return p, nil
}

func (r *memRepo) SavePreferences(ctx context.Context, userID int64, u PreferenceUpdate) (*Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prefs[userID]
	if !ok {
		p = DefaultPreferences(userID)
		r.prefs[userID] = p
	}
	u.Apply(p)
	return p, nil
}

func (r *memRepo) Append(ctx context.Context, n *Notification) (*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	r.inbox = append(r.inbox, n)
	return n, nil
}

func (r *memRepo) Page(ctx context.Context, userID int64, page, perPage int) ([]*Notification, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inbox, len(r.inbox), nil
}

type sentPush struct {
	tokens []string
	push   Push
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentPush
	err  error
}

func (m *fakeMessenger) Send(ctx context.Context, tokens []string, p Push) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentPush{tokens: tokens, push: p})
	return m.err
}
