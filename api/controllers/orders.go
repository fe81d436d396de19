package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/internal/orders"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
)

type orderLineItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Image     string    `json:"image"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Quantity  int       `json:"quantity"`
}

type orderResponse struct {
	OrderNumber string                  `json:"order_number"`
	Status      string                  `json:"status"`
	Total       string                  `json:"total"`
	Email       string                  `json:"email"`
	FirstName   string                  `json:"first_name"`
	LastName    string                  `json:"last_name"`
	Address     string                  `json:"address"`
	City        string                  `json:"city"`
	State       string                  `json:"state"`
	Zip         string                  `json:"zip"`
	LineItems   []orderLineItemResponse `json:"line_items"`
	PaidAt      *time.Time              `json:"paid_at,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

type trackingStageResponse struct {
	Status      string `json:"status"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Complete    bool   `json:"complete"`
}

type receiptResponse struct {
	Order  orderResponse           `json:"order"`
	Stages []trackingStageResponse `json:"stages"`
}

// OrderLatest returns the user's most recent confirmed order with its
// fulfillment timeline.
func OrderLatest(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.LatestReceipt(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReceiptResponse(receipt))
	}
}

// OrderByNumber returns one of the user's orders by its public number.
func OrderByNumber(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.ReceiptByNumber(r.Context(), userID, chi.URLParam(r, "orderNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReceiptResponse(receipt))
	}
}

func toReceiptResponse(receipt *orders.Receipt) receiptResponse {
	return receiptResponse{
		Order:  toOrderResponse(receipt.Order),
		Stages: toStageResponses(receipt.Stages),
	}
}

func toOrderResponse(order *models.Order) orderResponse {
	items := make([]orderLineItemResponse, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, orderLineItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.StringFixed(2),
			Image:     item.Image,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		})
	}
	return orderResponse{
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       order.Total.StringFixed(2),
		Email:       order.Email,
		FirstName:   order.FirstName,
		LastName:    order.LastName,
		Address:     order.Address,
		City:        order.City,
		State:       order.State,
		Zip:         order.Zip,
		LineItems:   items,
		PaidAt:      order.PaidAt,
		CreatedAt:   order.CreatedAt,
	}
}

func toStageResponses(stages []orders.TrackingStage) []trackingStageResponse {
	payload := make([]trackingStageResponse, 0, len(stages))
	for _, stage := range stages {
		payload = append(payload, trackingStageResponse{
			Status:      string(stage.Status),
			Label:       stage.Label,
			Description: stage.Description,
			Complete:    stage.Complete,
		})
	}
	return payload
}
