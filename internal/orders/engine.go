package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"bookstore-api/internal/stores/kafka"
	"bookstore-api/pkg/apperror"
	"bookstore-api/pkg/logkey"
)

// Events is the producer the engine notifies after a transaction
// commits. A nil producer disables publishing.
type Events interface {
	ProduceMessage(topic string, key []byte, value []byte) error
}

type Service struct {
	store  Store
	events Events
}

func NewService(store Store, events Events) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	return &Service{store: store, events: events}, nil
}

// CreateOrderFromCart converts the caller's cart into an order. The
// stock check, the price snapshot, the stock decrement and the cart
// clearing all happen inside one transaction against one locked read,
// so two concurrent orders can never both consume the same stock.
//
// This operation is not safe to retry blindly after a timeout: callers
// must look the order up first, or they may charge stock twice.
func (s *Service) CreateOrderFromCart(ctx context.Context, userID string) (Order, error) {
	var out Order

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		cartID, lines, err := tx.CartLines(userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperror.StateConflict("cart is empty")
		}

		var total int64
		for _, line := range lines {
			if !line.Available {
				return apperror.NotFound("book in cart is no longer available").WithDetail("bookId", line.BookID)
			}
			if line.Quantity > line.Stock {
				return apperror.StateConflict("insufficient stock").WithDetail("bookId", line.BookID)
			}
			total += int64(line.Quantity) * int64(line.UnitPrice)
		}

		order := Order{
			ID:          uuid.NewString(),
			UserID:      userID,
			TotalAmount: total,
			Status:      StatusPending,
			CreatedAt:   time.Now().UTC(),
		}
		order.UpdatedAt = order.CreatedAt
		for _, line := range lines {
			order.Items = append(order.Items, OrderItem{
				ID:        uuid.NewString(),
				BookID:    line.BookID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}

		if err := tx.InsertOrder(order); err != nil {
			return err
		}
		for _, line := range lines {
			if err := tx.DecrementStock(line.BookID, line.Quantity); err != nil {
				return err
			}
		}
		if err := tx.ClearCart(cartID); err != nil {
			return err
		}

		out = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publish(kafka.TopicOrderCreated, out.ID, kafka.OrderCreatedEvent{
		OrderID:     out.ID,
		UserID:      out.UserID,
		TotalAmount: out.TotalAmount,
		CreatedAt:   out.CreatedAt,
	})

	return out, nil
}

// CancelOrder sets the order to CANCELLED and restores the exact
// quantities snapshotted in its items, as one atomic unit. Cancelling
// an already-cancelled order fails so stock is never restored twice.
// PAID orders may be cancelled; refund reconciliation happens outside
// this service.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (Order, error) {
	var out Order

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		order, err := tx.GetOrderForUpdate(orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return apperror.Forbidden("not your order")
		}
		if order.Status == StatusCancelled {
			return apperror.StateConflict("order is already cancelled")
		}

		if err := tx.SetStatus(orderID, StatusCancelled); err != nil {
			return err
		}
		// Restore in book id order, the same order the create path locks
		// books in, so overlapping transactions cannot deadlock.
		items := append([]OrderItem(nil), order.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].BookID < items[j].BookID })
		for _, item := range items {
			if err := tx.RestoreStock(item.BookID, item.Quantity); err != nil {
				return err
			}
		}

		order.Status = StatusCancelled
		out = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publish(kafka.TopicOrderCancelled, out.ID, kafka.OrderCancelledEvent{
		OrderID:     out.ID,
		UserID:      out.UserID,
		CancelledAt: time.Now().UTC(),
	})

	return out, nil
}

// AdminSetStatus overwrites the order status without touching stock.
// Because this path never restores or re-checks stock, an order that
// reached CANCELLED cannot be moved back out of it here.
func (s *Service) AdminSetStatus(ctx context.Context, orderID, status string) (Order, error) {
	if !ValidStatus(status) {
		return Order{}, apperror.Validation(fmt.Sprintf("unknown order status %q", status))
	}

	var out Order

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		order, err := tx.GetOrderForUpdate(orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusCancelled && status != StatusCancelled {
			return apperror.StateConflict("cancelled orders cannot change status")
		}

		if err := tx.SetStatus(orderID, status); err != nil {
			return err
		}

		order.Status = status
		out = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return out, nil
}

// GetOrderDetail returns one order after checking ownership.
func (s *Service) GetOrderDetail(ctx context.Context, userID, orderID string) (Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.UserID != userID {
		return Order{}, apperror.Forbidden("not your order")
	}
	return order, nil
}

// GetMyOrders lists the caller's orders, newest first by default.
func (s *Service) GetMyOrders(ctx context.Context, userID string, f ListFilter) ([]Order, int, error) {
	f.UserID = userID
	return s.store.ListOrders(ctx, f)
}

// AdminListOrders lists orders across all users.
func (s *Service) AdminListOrders(ctx context.Context, f ListFilter) ([]Order, int, error) {
	return s.store.ListOrders(ctx, f)
}

func (s *Service) publish(topic, orderID string, event any) {
	if s.events == nil {
		return
	}
	// Fire and forget: the order is committed, event delivery is
	// best effort.
	go func() {
		jsonData, err := json.Marshal(event)
		if err != nil {
			slog.Error("failed to marshal order event", slog.String(logkey.ERROR, err.Error()))
			return
		}
		if err := s.events.ProduceMessage(topic, []byte(orderID), jsonData); err != nil {
			slog.Error("failed to produce order event",
				slog.String(logkey.ERROR, err.Error()), slog.String(logkey.OrderID, orderID))
		}
	}()
}
