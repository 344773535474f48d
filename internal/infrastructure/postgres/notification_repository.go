package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"bankdash/internal/domain/notification"
)

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const deviceReturning = `RETURNING id, user_id, token, platform, active, created_at, last_seen`

func scanDevice(row rowScanner) (*notification.Device, error) {
	d := new(notification.Device)
	err := row.Scan(&d.ID, &d.UserID, &d.Token, &d.Platform, &d.Active, &d.CreatedAt, &d.LastSeen)
	return d, err
}

// SaveDevice moves an already-known token to reg.UserID.
func (r *NotificationRepository) SaveDevice(ctx context.Context, reg notification.DeviceRegistration) (*notification.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, `
		INSERT INTO push_devices (user_id, token, platform) VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, active = TRUE, last_seen = NOW()
		`+deviceReturning, reg.UserID, reg.Token, reg.Platform))
	if err != nil {
		return nil, fmt.Errorf("failed to save device: %w", err)
	}
	return d, nil
}

func (r *NotificationRepository) ActiveDevices(ctx context.Context, userID int64) ([]*notification.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, token, platform, active, created_at, last_seen
		FROM push_devices WHERE user_id = $1 AND active
		ORDER BY last_seen DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var out []*notification.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) DeactivateToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE push_devices SET active = FALSE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}
	return nil
}

const preferenceReturning = `RETURNING id, user_id, transactions, transfers, bills, budgets, updated_at`

func scanPreferences(row rowScanner) (*notification.Preferences, error) {
	p := new(notification.Preferences)
	err := row.Scan(&p.ID, &p.UserID, &p.Transactions, &p.Transfers, &p.Bills, &p.Budgets, &p.UpdatedAt)
	return p, err
}

func (r *NotificationRepository) Preferences(ctx context.Context, userID int64) (*notification.Preferences, error) {
	p, err := scanPreferences(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, transactions, transfers, bills, budgets, updated_at
		FROM notification_preferences WHERE user_id = $1`, userID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, notification.ErrPreferencesNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to load notification preferences: %w", err)
	}
	return p, nil
}

// SavePreferences relies on the column defaults for a first insert and
// COALESCE to keep toggles absent from u.
func (r *NotificationRepository) SavePreferences(ctx context.Context, userID int64, u notification.PreferenceUpdate) (*notification.Preferences, error) {
	p, err := scanPreferences(r.db.QueryRowContext(ctx, `
		INSERT INTO notification_preferences AS np (user_id, transactions, transfers, bills, budgets)
		VALUES ($1, COALESCE($2, TRUE), COALESCE($3, TRUE), COALESCE($4, TRUE), COALESCE($5, TRUE))
		ON CONFLICT (user_id) DO UPDATE SET
			transactions = COALESCE($2, np.transactions),
			transfers    = COALESCE($3, np.transfers),
			bills        = COALESCE($4, np.bills),
			budgets      = COALESCE($5, np.budgets),
			updated_at   = NOW()
		`+preferenceReturning,
		userID, toggle(u.Transactions), toggle(u.Transfers), toggle(u.Bills), toggle(u.Budgets)))
	if err != nil {
		return nil, fmt.Errorf("failed to save notification preferences: %w", err)
	}
	return p, nil
}

func toggle(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

const inboxColumns = `id, user_id, title, body, category, data, read_at, created_at`

func scanNotification(row rowScanner) (*notification.Notification, error) {
	var (
		n      notification.Notification
		data   []byte
		readAt sql.NullTime
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Category, &data, &readAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ReadAt = timePtr(readAt)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("notification %s has malformed data: %w", n.ID, err)
		}
	}
	return &n, nil
}

func (r *NotificationRepository) Append(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification data: %w", err)
	}
	saved, err := scanNotification(r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, title, body, category, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+inboxColumns, n.UserID, n.Title, n.Body, string(n.Category), data))
	if err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}
	return saved, nil
}

func (r *NotificationRepository) Page(ctx context.Context, userID int64, page, perPage int) ([]*notification.Notification, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+inboxColumns+` FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]*notification.Notification, 0, perPage)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}
