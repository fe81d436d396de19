package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// Order is a checkout receipt. It snapshots the cart contents and the
// shipping contact at the moment of submission so later catalog edits do
// not rewrite history.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;uniqueIndex;not null"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:pending"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	StripeSessionID string            `gorm:"column:stripe_session_id;index"`
	Email           string            `gorm:"column:email;not null"`
	FirstName       string            `gorm:"column:first_name;not null"`
	LastName        string            `gorm:"column:last_name;not null"`
	Address         string            `gorm:"column:address;not null"`
	City            string            `gorm:"column:city;not null"`
	State           string            `gorm:"column:state;not null"`
	Zip             string            `gorm:"column:zip;not null"`
	LineItems       []OrderLineItem   `gorm:"foreignKey:OrderID"`
	PaidAt          *time.Time        `gorm:"column:paid_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem is a purchased line frozen from the cart at checkout.
type OrderLineItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Image     string          `gorm:"column:image"`
	Size      string          `gorm:"column:size;not null"`
	Color     string          `gorm:"column:color;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
