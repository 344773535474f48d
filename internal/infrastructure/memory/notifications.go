package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"bankdash/internal/domain/notification"
)

// NotificationRepository implements notification.Repository on a Store.
type NotificationRepository struct {
	s *Store
}

func NewNotificationRepository(s *Store) *NotificationRepository {
	return &NotificationRepository{s: s}
}

func (r *NotificationRepository) SaveDevice(ctx context.Context, reg notification.DeviceRegistration) (*notification.Device, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	d, ok := r.s.devices[reg.Token]
	if !ok {
		d = &notification.Device{ID: uuid.NewString(), Token: reg.Token, CreatedAt: now}
		r.s.devices[reg.Token] = d
	}
	d.UserID, d.Platform, d.Active, d.LastSeen = reg.UserID, reg.Platform, true, now
	out := *d
	return &out, nil
}

// ActiveDevices returns the most recently seen device first.
func (r *NotificationRepository) ActiveDevices(ctx context.Context, userID int64) ([]*notification.Device, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*notification.Device
	for _, d := range r.s.devices {
		if d.Active && d.UserID == userID {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out, nil
}

func (r *NotificationRepository) DeactivateToken(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.devices[token]; ok {
		d.Active = false
	}
	return nil
}

func (r *NotificationRepository) Preferences(ctx context.Context, userID int64) (*notification.Preferences, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.preferences[userID]
	if !ok {
		return nil, notification.ErrPreferencesNotFound
	}
	out := *p
	return &out, nil
}

func (r *NotificationRepository) SavePreferences(ctx context.Context, userID int64, u notification.PreferenceUpdate) (*notification.Preferences, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.preferences[userID]
	if !ok {
		p = notification.DefaultPreferences(userID)
		p.ID = uuid.NewString()
		r.s.preferences[userID] = p
	}
	u.Apply(p)
	p.UpdatedAt = r.s.now()
	out := *p
	return &out, nil
}

func (r *NotificationRepository) Append(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	saved := *n
	saved.ID = uuid.NewString()
	saved.CreatedAt = r.s.now()
	r.s.notifications = append(r.s.notifications, &saved)
	out := saved
	return &out, nil
}

// Page walks the inbox backwards so the newest entry comes first.
func (r *NotificationRepository) Page(ctx context.Context, userID int64, page, perPage int) ([]*notification.Notification, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	skip := (page - 1) * perPage
	total := 0
	items := []*notification.Notification{}
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if n.UserID != userID {
			continue
		}
		if total >= skip && len(items) < perPage {
			c := *n
			items = append(items, &c)
		}
		total++
	}
	return items, total, nil
}
