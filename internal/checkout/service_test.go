package checkout

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/cart"
	"github.com/atelierhq/atelier-backend/internal/orders"
	"github.com/atelierhq/atelier-backend/pkg/config"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	stripeclient "github.com/atelierhq/atelier-backend/pkg/stripe"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total NUMERIC NOT NULL,
  stripe_session_id TEXT,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  address TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  zip TEXT NOT NULL,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  image TEXT,
  size TEXT NOT NULL,
  color TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ordersTable).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubCartService struct {
	state     cart.State
	converted bool
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (cart.State, error) {
	return s.state, nil
}

func (s *stubCartService) ConvertActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	s.converted = true
	return nil
}

type stubPayments struct {
	createErr     error
	paymentStatus string
	created       []stripeclient.SessionParams
	sessionID     string
}

func (s *stubPayments) CreateCheckoutSession(ctx context.Context, params stripeclient.SessionParams) (*stripeclient.SessionResult, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, params)
	return &stripeclient.SessionResult{
		SessionID:   s.sessionID,
		RedirectURL: "https://checkout.stripe.com/c/pay/" + s.sessionID,
	}, nil
}

func (s *stubPayments) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripeclient.SessionResult, error) {
	return &stripeclient.SessionResult{
		SessionID:     sessionID,
		PaymentStatus: s.paymentStatus,
	}, nil
}

type stubNotify struct {
	sent []string
	err  error
}

func (s *stubNotify) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, order.OrderNumber)
	return nil
}

func twoLineCart() cart.State {
	return cart.State{Lines: []cart.Line{
		{ProductID: uuid.New(), Name: "Wool Overcoat", Price: decimal.RequireFromString("85.00"), Size: "M", Color: "Charcoal", Quantity: 1},
		{ProductID: uuid.New(), Name: "Cashmere Scarf", Price: decimal.RequireFromString("45.00"), Size: "OS", Color: "Camel", Quantity: 2},
	}}
}

func validSubmitInput() SubmitInput {
	return SubmitInput{
		Email:     "shopper@example.com",
		FirstName: "Avery",
		LastName:  "Lane",
		Address:   "12 Mercer St",
		City:      "New York",
		State:     "NY",
		Zip:       "10013",
	}
}

type checkoutFixture struct {
	svc      Service
	db       *gorm.DB
	carts    *stubCartService
	payments *stubPayments
	notify   *stubNotify
	repo     *orders.Repository
}

func newCheckoutFixture(t *testing.T, state cart.State) *checkoutFixture {
	t.Helper()

	db := setupCheckoutTestDB(t)
	carts := &stubCartService{state: state}
	payments := &stubPayments{sessionID: "cs_test_123", paymentStatus: "paid"}
	notify := &stubNotify{}
	repo := orders.NewRepository(db)
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})

	svc, err := NewService(carts, repo, payments, notify, gormTxRunner{db: db}, logg, config.CheckoutConfig{
		SuccessURL: "http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://localhost:3000/checkout",
	})
	require.NoError(t, err)

	return &checkoutFixture{svc: svc, db: db, carts: carts, payments: payments, notify: notify, repo: repo}
}

func (f *checkoutFixture) orderCount(t *testing.T) int64 {
	t.Helper()

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	return count
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	f := newCheckoutFixture(t, twoLineCart())
	userID := uuid.New()
	f.svc.Begin(context.Background(), userID)

	input := validSubmitInput()
	input.Email = ""
	input.Zip = "  "

	_, err := f.svc.Submit(context.Background(), userID, input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), "email")
	assert.Contains(t, typed.Message(), "zip")

	assert.Equal(t, PhaseCollecting, f.svc.Phase(userID))
	assert.Equal(t, int64(0), f.orderCount(t))
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, cart.State{})
	userID := uuid.New()

	_, err := f.svc.Submit(context.Background(), userID, validSubmitInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, PhaseCollecting, f.svc.Phase(userID))
}

func TestSubmitOpensPaymentSession(t *testing.T) {
	f := newCheckoutFixture(t, twoLineCart())
	userID := uuid.New()

	result, err := f.svc.Submit(context.Background(), userID, validSubmitInput())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", result.SessionID)
	assert.Contains(t, result.RedirectURL, "cs_test_123")
	assert.Equal(t, PhaseAwaitingPaymentConfirmation, result.Phase)
	assert.Equal(t, PhaseAwaitingPaymentConfirmation, f.svc.Phase(userID))

	// Pending order frozen from the cart.
	order, err := f.repo.FindByStripeSession(context.Background(), "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("175.00")))
	assert.Len(t, order.LineItems, 2)

	// Line items forwarded in cents.
	require.Len(t, f.payments.created, 1)
	items := f.payments.created[0].LineItems
	require.Len(t, items, 2)
	assert.Equal(t, int64(8500), items[0].AmountCents)
	assert.Equal(t, int64(4500), items[1].AmountCents)
	assert.Equal(t, int64(2), items[1].Quantity)
}

func TestSubmitSessionFailureDiscardsPendingOrder(t *testing.T) {
	f := newCheckoutFixture(t, twoLineCart())
	f.payments.createErr = pkgerrors.New(pkgerrors.CodePayment, "card network unavailable")
	userID := uuid.New()

	_, err := f.svc.Submit(context.Background(), userID, validSubmitInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePayment, typed.Code())

	assert.Equal(t, PhaseCollecting, f.svc.Phase(userID))
	assert.Equal(t, int64(0), f.orderCount(t))
	assert.False(t, f.carts.converted)
}

func TestConfirmPaidSession(t *testing.T) {
	f := newCheckoutFixture(t, twoLineCart())
	userID := uuid.New()

	submitted, err := f.svc.Submit(context.Background(), userID, validSubmitInput())
	require.NoError(t, err)

	result, err := f.svc.Confirm(context.Background(), userID, submitted.SessionID)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, result.Phase)
	assert.Equal(t, enums.OrderStatusConfirmed, result.Order.Status)
	require.NotNil(t, result.Order.PaidAt)

	completed := 0
	for _, stage := range result.Stages {
		if stage.Complete {
			completed++
		}
	}
	assert.Equal(t, 2, completed)

	assert.True(t, f.carts.converted)
	assert.Equal(t, []string{submitted.OrderNumber}, f.notify.sent)

	stored, err := f.repo.FindByStripeSession(context.Background(), submitted.SessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, stored.Status)
}

func TestConfirmUnpaidSessionLeavesCartAlone(t *testing.T) {
	f := newCheckoutFixture(t, twoLineCart())
	f.payments.paymentStatus = "unpaid"
	userID := uuid.New()

	submitted, err := f.svc.Submit(context.Background(), userID, validSubmitInput())
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), userID, submitted.SessionID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePayment, typed.Code())

	assert.Equal(t, PhaseCollecting, f.svc.Phase(userID))
	assert.False(t, f.carts.converted)
	assert.Empty(t, f.notify.sent)

	stored, err := f.repo.FindByStripeSession(context.Background(), submitted.SessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
}

func TestConfirmEmailFailureDoesNotFailOrder(t *testing.T) {
	f := newCheckoutFixture(t, twoLineCart())
	f.notify.err = errors.New("provider down")
	userID := uuid.New()

	submitted, err := f.svc.Submit(context.Background(), userID, validSubmitInput())
	require.NoError(t, err)

	result, err := f.svc.Confirm(context.Background(), userID, submitted.SessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, result.Order.Status)
	assert.Equal(t, PhaseCompleted, f.svc.Phase(userID))
}

func TestConfirmRejectsForeignOrder(t *testing.T) {
	f := newCheckoutFixture(t, twoLineCart())
	owner := uuid.New()

	submitted, err := f.svc.Submit(context.Background(), owner, validSubmitInput())
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), uuid.New(), submitted.SessionID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}
