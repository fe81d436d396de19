package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (cart.State, error)
	ConvertActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type paymentSessions interface {
	CreateCheckoutSession(ctx context.Context, params stripeclient.SessionParams) (*stripeclient.SessionResult, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripeclient.SessionResult, error)
}

type confirmationSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

// SubmitInput is the shipping contact collected before payment.
type SubmitInput struct {
	Email     string
	FirstName string
	LastName  string
	Address   string
	City      string
	State     string
	Zip       string
}

// SubmitResult points the storefront at the hosted payment page.
type SubmitResult struct {
	OrderNumber string
	SessionID   string
	RedirectURL string
	Phase       Phase
}

// ConfirmResult carries the receipt once payment is verified.
type ConfirmResult struct {
	Order  *models.Order
	Stages []orders.TrackingStage
	Phase  Phase
}

// Service orchestrates checkout: it freezes the cart into a pending order,
// hands payment to the provider, and reconciles the outcome. The cart is
// only cleared after the provider reports the session as paid.
type Service interface {
	Begin(ctx context.Context, userID uuid.UUID) Phase
	Phase(userID uuid.UUID) Phase
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*SubmitResult, error)
	Confirm(ctx context.Context, userID uuid.UUID, sessionID string) (*ConfirmResult, error)
}

type service struct {
	carts    cartService
	orders   *orders.Repository
	payments paymentSessions
	notify   confirmationSender
	tx       txRunner
	logger   *logger.Logger
	cfg      config.CheckoutConfig
	phases   *phaseTracker
	now      func() time.Time
}

// NewService builds the checkout orchestrator.
func NewService(
	carts cartService,
	orderRepo *orders.Repository,
	payments paymentSessions,
	notify confirmationSender,
	tx txRunner,
	logg *logger.Logger,
	cfg config.CheckoutConfig,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment sessions client required")
	}
	if notify == nil {
		return nil, fmt.Errorf("confirmation sender required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:    carts,
		orders:   orderRepo,
		payments: payments,
		notify:   notify,
		tx:       tx,
		logger:   logg,
		cfg:      cfg,
		phases:   newPhaseTracker(),
		now:      time.Now,
	}, nil
}

// Begin moves the user into the collecting phase.
func (s *service) Begin(ctx context.Context, userID uuid.UUID) Phase {
	s.phases.set(userID, PhaseCollecting)
	return PhaseCollecting
}

// Phase reports the user's current checkout phase.
func (s *service) Phase(userID uuid.UUID) Phase {
	return s.phases.get(userID)
}

// Submit validates the shipping contact, freezes the cart into a pending
// order, and opens a hosted payment session. Any failure returns the user
// to collecting with the cart untouched.
func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*SubmitResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	s.phases.set(userID, PhaseSubmitting)

	if missing := missingFields(input); len(missing) > 0 {
		s.phases.set(userID, PhaseCollecting)
		return nil, pkgerrors.
			New(pkgerrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing})
	}

	state, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		s.phases.set(userID, PhaseCollecting)
		return nil, err
	}
	if state.IsEmpty() {
		s.phases.set(userID, PhaseCollecting)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order := buildPendingOrder(userID, input, state, s.now())
	if _, err := s.orders.Create(ctx, order); err != nil {
		s.phases.set(userID, PhaseCollecting)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pending order")
	}

	session, err := s.payments.CreateCheckoutSession(ctx, stripeclient.SessionParams{
		CustomerEmail: input.Email,
		LineItems:     sessionLineItems(state),
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		// The pending order is an artifact of this attempt; discard it so
		// a retry starts clean. The cart itself is untouched.
		if delErr := s.orders.DeletePending(ctx, order.ID); delErr != nil {
			s.logger.Error(s.logger.WithOrderID(ctx, order.OrderNumber), "discard pending order", delErr)
		}
		s.phases.set(userID, PhaseCollecting)
		return nil, err
	}

	if err := s.orders.UpdateStripeSession(ctx, order.ID, session.SessionID); err != nil {
		s.phases.set(userID, PhaseCollecting)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach payment session")
	}

	s.phases.set(userID, PhaseAwaitingPaymentConfirmation)
	s.logger.Info(s.logger.WithOrderID(ctx, order.OrderNumber), "checkout submitted")

	return &SubmitResult{
		OrderNumber: order.OrderNumber,
		SessionID:   session.SessionID,
		RedirectURL: session.RedirectURL,
		Phase:       PhaseAwaitingPaymentConfirmation,
	}, nil
}

// Confirm verifies the payment session with the provider. A paid session
// confirms the order, retires the cart, and dispatches the receipt email;
// anything else returns the user to collecting with the cart intact.
func (s *service) Confirm(ctx context.Context, userID uuid.UUID, sessionID string) (*ConfirmResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	session, err := s.payments.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		s.phases.set(userID, PhaseCollecting)
		return nil, err
	}
	if !session.Paid() {
		s.phases.set(userID, PhaseCollecting)
		return nil, pkgerrors.New(pkgerrors.CodePayment, "payment was not completed")
	}

	order, err := s.orders.FindByStripeSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}

	paidAt := s.now()
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).MarkConfirmed(ctx, order.ID, paidAt); err != nil {
			return err
		}
		return s.carts.ConvertActive(ctx, tx, userID)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
	}
	order.Status = enums.OrderStatusConfirmed
	order.PaidAt = &paidAt

	// Receipt delivery is best effort: the sale is final once the order is
	// confirmed, so a mail outage only costs the email.
	if err := s.notify.SendOrderConfirmation(ctx, order); err != nil {
		s.logger.Error(s.logger.WithOrderID(ctx, order.OrderNumber), "order confirmation email failed", err)
	}

	s.phases.set(userID, PhaseCompleted)
	s.logger.Info(s.logger.WithOrderID(ctx, order.OrderNumber), "order confirmed")

	return &ConfirmResult{
		Order:  order,
		Stages: orders.TrackingStages(order.Status),
		Phase:  PhaseCompleted,
	}, nil
}

func missingFields(input SubmitInput) []string {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"email", input.Email},
		{"firstName", input.FirstName},
		{"lastName", input.LastName},
		{"address", input.Address},
		{"city", input.City},
		{"state", input.State},
		{"zip", input.Zip},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

func buildPendingOrder(userID uuid.UUID, input SubmitInput, state cart.State, now time.Time) *models.Order {
	lineItems := make([]models.OrderLineItem, 0, len(state.Lines))
	for _, line := range state.Lines {
		lineItems = append(lineItems, models.OrderLineItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Image:     line.Image,
			Size:      line.Size,
			Color:     line.Color,
			Quantity:  line.Quantity,
		})
	}
	return &models.Order{
		OrderNumber: orders.NewOrderNumber(now),
		UserID:      userID,
		Total:       state.Total(),
		Email:       strings.TrimSpace(input.Email),
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Address:     strings.TrimSpace(input.Address),
		City:        strings.TrimSpace(input.City),
		State:       strings.TrimSpace(input.State),
		Zip:         strings.TrimSpace(input.Zip),
		LineItems:   lineItems,
	}
}

func sessionLineItems(state cart.State) []stripeclient.SessionLineItem {
	items := make([]stripeclient.SessionLineItem, 0, len(state.Lines))
	for _, line := range state.Lines {
		items = append(items, stripeclient.SessionLineItem{
			Name:        line.Name,
			Description: fmt.Sprintf("Size %s, %s", line.Size, line.Color),
			AmountCents: line.Price.Mul(decimal.NewFromInt(100)).IntPart(),
			Quantity:    int64(line.Quantity),
		})
	}
	return items
}
