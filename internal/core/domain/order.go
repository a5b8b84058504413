package domain

import "time"

// OrderStatus is the storefront order state the shipment propagates into.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// orderStatusFor maps a shipment status to the order status it implies.
var orderStatusFor = map[ShipmentStatus]OrderStatus{
	StatusPlaced:         OrderConfirmed,
	StatusPendingPickup:  OrderConfirmed,
	StatusPickedUp:       OrderShipped,
	StatusInTransit:      OrderShipped,
	StatusOutForDelivery: OrderShipped,
	StatusDelivered:      OrderDelivered,
	StatusFailed:         OrderCancelled,
	StatusRTOInitiated:   OrderCancelled,
	StatusRTODelivered:   OrderCancelled,
	StatusCancelled:      OrderCancelled,
}

// OrderStatusFor returns the order status implied by a shipment status.
// The second result is false for pre-booking statuses, which leave the order alone.
func OrderStatusFor(s ShipmentStatus) (OrderStatus, bool) {
	os, ok := orderStatusFor[s]
	return os, ok
}

// Customer is the buyer and shipping address on an order.
type Customer struct {
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
	Pincode string `json:"pincode" bson:"pincode"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
}

// DeliveryMeta carries the storefront's delivery promise, if any.
type DeliveryMeta struct {
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty" bson:"expected_delivery_date,omitempty"`
	EstimatedDays        int        `json:"estimated_days,omitempty" bson:"estimated_days,omitempty"`
}

// Order is the owning storefront order. This service only reads it and writes its status.
type Order struct {
	ID               string       `json:"id" bson:"_id"`
	Status           OrderStatus  `json:"status" bson:"status"`
	PaymentMethod    PaymentMode  `json:"payment_method" bson:"payment_method"`
	TotalAmount      float64      `json:"total_amount" bson:"total_amount"`
	Customer         Customer     `json:"customer" bson:"customer"`
	ItemsDescription string       `json:"items_description" bson:"items_description"`
	DeliveryMeta     DeliveryMeta `json:"delivery_meta" bson:"delivery_meta"`
	DeliveredAt      *time.Time   `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	UpdatedAt        time.Time    `json:"updated_at" bson:"updated_at"`
}
