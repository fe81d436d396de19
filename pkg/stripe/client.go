package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/atelierhq/atelier-backend/pkg/config"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// SessionLineItem describes one cart line forwarded to Stripe Checkout.
type SessionLineItem struct {
	Name        string
	Description string
	AmountCents int64
	Quantity    int64
}

// SessionParams carries everything needed to open a hosted checkout page.
type SessionParams struct {
	CustomerEmail string
	LineItems     []SessionLineItem
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// SessionResult is the subset of the checkout session the service consumes.
type SessionResult struct {
	SessionID     string
	RedirectURL   string
	PaymentStatus string
	Metadata      map[string]string
}

// Paid reports whether Stripe marked the session as fully paid.
func (r SessionResult) Paid() bool {
	return r.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid)
}

// Client wraps Stripe's hosted checkout surface plus env-specific metadata.
type Client struct {
	environment string
	logger      *logger.Logger
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{environment: env, logger: logg}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreateCheckoutSession opens a hosted payment page and returns its redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, params SessionParams) (*SessionResult, error) {
	if len(params.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session requires at least one line item")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(item.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Name),
					Description: optionalString(item.Description),
				},
			},
		})
	}

	req := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		SuccessURL:    stripe.String(params.SuccessURL),
		CancelURL:     stripe.String(params.CancelURL),
		CustomerEmail: optionalString(params.CustomerEmail),
	}
	req.Context = ctx
	for key, value := range params.Metadata {
		req.AddMetadata(key, value)
	}

	sess, err := checkoutsession.New(req)
	if err != nil {
		return nil, c.mapStripeError(err, "create checkout session")
	}

	c.log(ctx, "checkout session created", map[string]any{"session_id": sess.ID})

	return &SessionResult{
		SessionID:     sess.ID,
		RedirectURL:   sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		Metadata:      sess.Metadata,
	}, nil
}

// RetrieveCheckoutSession fetches the session so payment status can be verified.
func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*SessionResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	req := &stripe.CheckoutSessionParams{}
	req.Context = ctx

	sess, err := checkoutsession.Get(sessionID, req)
	if err != nil {
		return nil, c.mapStripeError(err, "retrieve checkout session")
	}

	c.log(ctx, "checkout session retrieved", map[string]any{
		"session_id":     sess.ID,
		"payment_status": string(sess.PaymentStatus),
	})

	return &SessionResult{
		SessionID:     sess.ID,
		RedirectURL:   sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		Metadata:      sess.Metadata,
	}, nil
}

func (c *Client) log(ctx context.Context, msg string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	ctx = c.logger.WithFields(ctx, fields)
	c.logger.Info(ctx, msg)
}

func (c *Client) mapStripeError(err error, op string) error {
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := pkgerrors.CodePayment
		switch {
		case stripeErr.HTTPStatusCode == http.StatusUnauthorized:
			code = pkgerrors.CodeUnauthorized
		case stripeErr.Type == stripe.ErrorTypeInvalidRequest && stripeErr.HTTPStatusCode == http.StatusNotFound:
			code = pkgerrors.CodeNotFound
		case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
			code = pkgerrors.CodeValidation
		case stripeErr.Type == stripe.ErrorTypeAPI:
			code = pkgerrors.CodeDependency
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("stripe %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("stripe %s failed", op))
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return stripe.String(value)
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
