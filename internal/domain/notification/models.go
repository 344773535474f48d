package notification

import (
	"fmt"
	"time"

	"bankdash/internal/shared/apperror"
)

var (
	ErrPreferencesNotFound = fmt.Errorf("notification preferences %w", apperror.ErrNotFound)
	ErrInvalidCategory     = fmt.Errorf("%w: unknown notification category", apperror.ErrValidation)
	ErrInvalidDeviceType   = fmt.Errorf("%w: device type must be ios or android", apperror.ErrValidation)
	ErrInvalidToken        = fmt.Errorf("%w: device token is required", apperror.ErrValidation)
	ErrInvalidUser         = fmt.Errorf("%w: user id must be positive", apperror.ErrValidation)
)

// Message is a rendered notification addressed to one user.
type Message struct {
	Title    string
	Body     string
	Category Category
	Data     map[string]string
}

// payload copies msg.Data and adds the client route for the category.
func (m Message) payload() map[string]string {
	data := make(map[string]string, len(m.Data)+1)
	for k, v := range m.Data {
		data[k] = v
	}
	if _, ok := data["route"]; !ok {
		data["route"] = string(m.Category)
	}
	return data
}

// Device is a push token registered by one of the user's phones.
type Device struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// DeviceRegistration is the input for RegisterDevice.
type DeviceRegistration struct {
	UserID   int64
	Token    string
	Platform string
}

func (r DeviceRegistration) Validate() error {
	switch {
	case r.UserID <= 0:
		return ErrInvalidUser
	case r.Token == "":
		return ErrInvalidToken
	case r.Platform != "ios" && r.Platform != "android":
		return ErrInvalidDeviceType
	}
	return nil
}

// Notification is a delivered message kept for the in-app inbox.
type Notification struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"-"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Category  Category          `json:"category"`
	Data      map[string]string `json:"data,omitempty"`
	ReadAt    *time.Time        `json:"readAt,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewNotification builds an unsaved inbox entry from msg.
func NewNotification(userID int64, msg Message) (*Notification, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}
	if !msg.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	if msg.Title == "" || msg.Body == "" {
		return nil, fmt.Errorf("%w: notification title and body are required", apperror.ErrValidation)
	}
	return &Notification{
		UserID:   userID,
		Title:    msg.Title,
		Body:     msg.Body,
		Category: msg.Category,
		Data:     msg.payload(),
	}, nil
}
