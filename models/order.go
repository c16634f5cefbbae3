package models

import "time"

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type Order struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	OrderNumber      string        `gorm:"size:32;uniqueIndex;not null" json:"orderNumber"`
	UserID           uint          `gorm:"not null;index" json:"userId"`
	Items            []OrderItem   `gorm:"serializer:json;type:text;not null" json:"items"`
	Subtotal         float64       `json:"subtotal"`
	ShippingCost     float64       `json:"shippingCost"`
	Tax              float64       `json:"tax"`
	TotalAmount      float64       `gorm:"not null" json:"totalAmount"`
	ShippingAddress  Address       `gorm:"serializer:json;type:text" json:"shippingAddress"`
	BillingAddress   Address       `gorm:"serializer:json;type:text" json:"billingAddress"`
	PaymentMethod    string        `gorm:"size:50" json:"paymentMethod"`
	PaymentStatus    PaymentStatus `gorm:"size:20;not null;default:pending;index" json:"paymentStatus"`
	Status           OrderStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaymentReference string        `gorm:"size:100;index" json:"paymentReference"`
	TrackingNumber   string        `gorm:"size:100" json:"trackingNumber"`
	Notes            string        `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
