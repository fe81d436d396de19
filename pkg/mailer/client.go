package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/atelierhq/atelier-backend/pkg/config"
	"github.com/atelierhq/atelier-backend/pkg/logger"
)

var errAPIKeyRequired = errors.New("resend api key is required")

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender is the delivery surface consumed by notification services.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client delivers transactional email through Resend.
type Client struct {
	api         *resend.Client
	defaultFrom string
	logger      *logger.Logger
}

// NewClient validates the credentials and builds the Resend wrapper.
func NewClient(ctx context.Context, cfg config.ResendConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		api:         resend.NewClient(apiKey),
		defaultFrom: cfg.DefaultFrom,
		logger:      logg,
	}

	if logg != nil {
		logg.Info(ctx, "resend client initialized")
	}
	return client, nil
}

// Send delivers a single message. Callers decide whether failures are fatal.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient is required")
	}

	sent, err := c.api.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.defaultFrom,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	if c.logger != nil {
		c.logger.Info(c.logger.WithField(ctx, "email_id", sent.Id), "email dispatched")
	}
	return nil
}
