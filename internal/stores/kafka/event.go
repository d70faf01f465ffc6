package kafka

import "time"

const (
	TopicOrderCreated   = `orders.order-created`
	TopicOrderCancelled = `orders.order-cancelled`
)

// Events published after an order transaction commits. Consumers
// (notification, analytics) key messages on the order id.

type OrderCreatedEvent struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	TotalAmount int64     `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderCancelledEvent struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}
