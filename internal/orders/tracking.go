package orders

import "github.com/atelierhq/atelier-backend/pkg/enums"

// TrackingStage is one step of the fulfillment timeline shown with a
// receipt.
type TrackingStage struct {
	Status      enums.OrderStatus `json:"status"`
	Label       string            `json:"label"`
	Description string            `json:"description"`
	Complete    bool              `json:"complete"`
}

var trackingTimeline = []TrackingStage{
	{Status: enums.OrderStatusConfirmed, Label: "Order Confirmed", Description: "We have received your order and payment."},
	{Status: enums.OrderStatusProcessing, Label: "Processing", Description: "Your items are being prepared for shipment."},
	{Status: enums.OrderStatusShipped, Label: "Shipped", Description: "Your order is on its way."},
	{Status: enums.OrderStatusDelivered, Label: "Delivered", Description: "Your order has arrived."},
}

// stageRank maps a status to the number of completed timeline stages.
// Payment confirmation also starts fulfillment, so a confirmed order shows
// the first two stages complete.
func stageRank(status enums.OrderStatus) int {
	switch status {
	case enums.OrderStatusConfirmed, enums.OrderStatusProcessing:
		return 2
	case enums.OrderStatusShipped:
		return 3
	case enums.OrderStatusDelivered:
		return 4
	default:
		return 0
	}
}

// TrackingStages returns the four-stage timeline for the given status with
// completed stages marked.
func TrackingStages(status enums.OrderStatus) []TrackingStage {
	rank := stageRank(status)
	stages := make([]TrackingStage, len(trackingTimeline))
	copy(stages, trackingTimeline)
	for i := range stages {
		stages[i].Complete = i < rank
	}
	return stages
}
