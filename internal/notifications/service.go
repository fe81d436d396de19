package notifications

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/mailer"
)

// Service sends transactional storefront email.
type Service interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type service struct {
	sender mailer.Sender
	logger *logger.Logger
}

// NewService wires the notification dependencies.
func NewService(sender mailer.Sender, logg *logger.Logger) (Service, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{sender: sender, logger: logg}, nil
}

// SendOrderConfirmation emails the receipt for a confirmed order. The
// caller treats delivery failures as non-fatal; the order stays confirmed
// either way.
func (s *service) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if order.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order email is required")
	}

	msg := mailer.Message{
		To:      order.Email,
		Subject: fmt.Sprintf("Your Atelier order %s is confirmed", order.OrderNumber),
		HTML:    renderOrderConfirmation(order),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send order confirmation")
	}

	s.logger.Info(s.logger.WithOrderID(ctx, order.OrderNumber), "order confirmation sent")
	return nil
}
