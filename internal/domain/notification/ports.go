package notification

import "context"

// DeviceStore keeps push tokens.
type DeviceStore interface {
	// SaveDevice registers token for the user, taking it over from any
	// previous owner.
	SaveDevice(ctx context.Context, reg DeviceRegistration) (*Device, error)
	ActiveDevices(ctx context.Context, userID int64) ([]*Device, error)
	DeactivateToken(ctx context.Context, token string) error
}

// PreferenceStore keeps per-user category toggles.
type PreferenceStore interface {
	// Preferences returns ErrPreferencesNotFound when nothing was saved.
	Preferences(ctx context.Context, userID int64) (*Preferences, error)
	// SavePreferences applies u on top of the stored row, or on top of
	// DefaultPreferences when there is none.
	SavePreferences(ctx context.Context, userID int64, u PreferenceUpdate) (*Preferences, error)
}

// Inbox stores delivered notifications.
type Inbox interface {
	Append(ctx context.Context, n *Notification) (*Notification, error)
	// Page returns one page newest first, plus the user's total.
	Page(ctx context.Context, userID int64, page, perPage int) ([]*Notification, int, error)
}

// Repository is everything the service persists.
type Repository interface {
	DeviceStore
	PreferenceStore
	Inbox
}

// Push is the payload handed to a Messenger.
type Push struct {
	Title string
	Body  string
	Data  map[string]string
}

// Messenger delivers a push to a set of device tokens.
type Messenger interface {
	Send(ctx context.Context, tokens []string, p Push) error
}
