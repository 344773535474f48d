// Package firebase delivers push notifications through Firebase Cloud
// Messaging.
package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"bankdash/internal/domain/notification"
)

// maxTokensPerRequest is the FCM multicast limit.
const maxTokensPerRequest = 500

// TokenDeactivator marks a token FCM reported as dead.
type TokenDeactivator func(ctx context.Context, token string) error

type fcmSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Client is a notification.Messenger backed by FCM.
type Client struct {
	fcm        fcmSender
	deactivate TokenDeactivator
	log        zerolog.Logger
}

// NewClient loads the service account in credentialsFile. deactivate may
// be nil.
func NewClient(ctx context.Context, credentialsFile string, deactivate TokenDeactivator, log zerolog.Logger) (*Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	fcm, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return newClient(fcm, deactivate, log), nil
}

func newClient(fcm fcmSender, deactivate TokenDeactivator, log zerolog.Logger) *Client {
	return &Client{fcm: fcm, deactivate: deactivate, log: log.With().Str("component", "fcm").Logger()}
}

// Send delivers p to every token. A rejected request aborts the remaining
// batches; per-token failures do not.
func (c *Client) Send(ctx context.Context, tokens []string, p notification.Push) error {
	var delivered, failed int
	for start := 0; start < len(tokens); start += maxTokensPerRequest {
		batch := tokens[start:min(start+maxTokensPerRequest, len(tokens))]
		resp, err := c.fcm.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: &messaging.Notification{Title: p.Title, Body: p.Body},
			Data:         p.Data,
		})
		if err != nil {
			return fmt.Errorf("fcm multicast of %d tokens: %w", len(batch), err)
		}
		delivered += resp.SuccessCount
		failed += resp.FailureCount
		c.pruneDead(ctx, batch, resp.Responses)
	}
	if len(tokens) > 0 {
		c.log.Debug().Int("delivered", delivered).Int("failed", failed).Msg("push sent")
	}
	return nil
}

// pruneDead deactivates tokens FCM will never accept again. Other
// failures are transient and the token is kept.
func (c *Client) pruneDead(ctx context.Context, batch []string, results []*messaging.SendResponse) {
	for i, r := range results {
		if i >= len(batch) || r == nil || r.Error == nil {
			continue
		}
		if !messaging.IsUnregistered(r.Error) && !messaging.IsInvalidArgument(r.Error) {
			c.log.Warn().Err(r.Error).Msg("push to device failed")
			continue
		}
		if c.deactivate == nil {
			continue
		}
		if err := c.deactivate(ctx, batch[i]); err != nil {
			c.log.Error().Err(err).Msg("failed to deactivate dead token")
		}
	}
}
