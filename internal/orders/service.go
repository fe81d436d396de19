package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
)

// Receipt pairs an order with its fulfillment timeline.
type Receipt struct {
	Order  *models.Order
	Stages []TrackingStage
}

// Service exposes order history reads for the storefront. Orders are
// created by checkout, never directly through this service.
type Service interface {
	LatestReceipt(ctx context.Context, userID uuid.UUID) (*Receipt, error)
	ReceiptByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*Receipt, error)
}

type service struct {
	repo *Repository
}

// NewService builds an orders service backed by the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// LatestReceipt returns the user's most recent confirmed order. Pending
// orders are invisible here; they only become receipts once paid.
func (s *service) LatestReceipt(ctx context.Context, userID uuid.UUID) (*Receipt, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	order, err := s.repo.FindLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no orders yet")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest order")
	}
	return &Receipt{Order: order, Stages: TrackingStages(order.Status)}, nil
}

// ReceiptByNumber returns the user's order with the given public number.
func (s *service) ReceiptByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*Receipt, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByOrderNumber(ctx, userID, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &Receipt{Order: order, Stages: TrackingStages(order.Status)}, nil
}
