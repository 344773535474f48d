package notification

import (
	"context"
	"errors"

	"bankdash/internal/shared/logger"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Service registers devices, stores preferences and delivers messages.
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a notification service. A nil messenger stores
// notifications in the inbox without pushing them.
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// RegisterDevice saves the token and seeds default preferences on a
// user's first device.
func (s *Service) RegisterDevice(ctx context.Context, reg DeviceRegistration) (*Device, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	dev, err := s.repo.SaveDevice(ctx, reg)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.Preferences(ctx, reg.UserID)
	if errors.Is(err, ErrPreferencesNotFound) {
		_, err = s.repo.SavePreferences(ctx, reg.UserID, PreferenceUpdate{})
	}
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int64("user_id", reg.UserID).Msg("could not seed notification preferences")
	}
	return dev, nil
}

// GetPreferences falls back to DefaultPreferences for users who never
// saved any.
func (s *Service) GetPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}
	p, err := s.repo.Preferences(ctx, userID)
	if errors.Is(err, ErrPreferencesNotFound) {
		return DefaultPreferences(userID), nil
	}
	return p, err
}

func (s *Service) UpdatePreferences(ctx context.Context, userID int64, u PreferenceUpdate) (*Preferences, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}
	return s.repo.SavePreferences(ctx, userID, u)
}

// ClampPage normalizes inbox paging input.
func ClampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	return page, perPage
}

func (s *Service) ListNotifications(ctx context.Context, userID int64, page, perPage int) ([]*Notification, int, error) {
	if userID <= 0 {
		return nil, 0, ErrInvalidUser
	}
	page, perPage = ClampPage(page, perPage)
	return s.repo.Page(ctx, userID, page, perPage)
}

// SendToUser pushes msg to the user's active devices and records it in the
// inbox. Muted categories are dropped silently. Push and inbox failures are
// logged; only preference and device lookups fail the call.
func (s *Service) SendToUser(ctx context.Context, userID int64, msg Message) error {
	n, err := NewNotification(userID, msg)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx).With().Int64("user_id", userID).Str("category", string(msg.Category)).Logger()

	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return err
	}
	if !prefs.Allows(msg.Category) {
		log.Debug().Msg("category muted, notification skipped")
		return nil
	}

	devices, err := s.repo.ActiveDevices(ctx, userID)
	if err != nil {
		return err
	}
	if s.messenger != nil && len(devices) > 0 {
		tokens := make([]string, 0, len(devices))
		for _, d := range devices {
			tokens = append(tokens, d.Token)
		}
		if err := s.messenger.Send(ctx, tokens, Push{Title: n.Title, Body: n.Body, Data: n.Data}); err != nil {
			log.Error().Err(err).Int("devices", len(tokens)).Msg("push delivery failed")
		}
	}

	if _, err := s.repo.Append(ctx, n); err != nil {
		log.Error().Err(err).Msg("failed to store notification")
	}
	return nil
}
