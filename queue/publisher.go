package queue

import "context"

const (
	KeyUserRegistered = "user.registered"
	KeyOrderCreated   = "order.created"
	KeyOrderPaid      = "order.paid"
)

type Publisher interface {
	Publish(ctx context.Context, key string, event any, reqID string) error
	Close() error
}

type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(ctx context.Context, key string, event any, reqID string) error {
	return nil
}
func (NoopPub) Close() error { return nil }

type UserRegistered struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type OrderCreated struct {
	OrderID     uint    `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	UserID      uint    `json:"user_id"`
	TotalAmount float64 `json:"total_amount"`
}

type OrderPaid struct {
	OrderID   uint   `json:"order_id"`
	Reference string `json:"reference"`
	Source    string `json:"source"`
}
