package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bookstore-api/pkg/apperror"
)

type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	return &Service{store: store}, nil
}

// GetOrCreateCart fetches the user's cart with its items, creating an
// empty cart on first access.
func (s *Service) GetOrCreateCart(ctx context.Context, userID string) (Cart, error) {
	var out Cart

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		cartID, err := tx.GetOrCreateCartID(userID)
		if err != nil {
			return err
		}
		out, err = tx.CartHeader(cartID)
		if err != nil {
			return err
		}
		out.Items, err = tx.Items(cartID)
		return err
	})
	if err != nil {
		return Cart{}, err
	}
	return out, nil
}

// AddItem upserts a cart line: a book already in the cart has the quantity
// added to the existing value, not overwritten, so a cart never holds two
// lines for the same book. The caller supplies the book's current stock so
// the combined quantity can be checked against it.
func (s *Service) AddItem(ctx context.Context, userID, bookID string, quantity, stock int) (CartItem, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return CartItem{}, apperror.Validation(fmt.Sprintf("quantity must be between %d and %d", MinQuantity, MaxQuantity))
	}

	var out CartItem

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		cartID, err := tx.GetOrCreateCartID(userID)
		if err != nil {
			return err
		}

		existing, found, err := tx.ItemForUpdate(cartID, bookID)
		if err != nil {
			return err
		}
		if !found {
			if quantity > stock {
				return apperror.StateConflict("insufficient stock").WithDetail("bookId", bookID)
			}
			out = CartItem{ID: uuid.NewString(), BookID: bookID, Quantity: quantity}
			return tx.InsertItem(cartID, out)
		}

		newQuantity := existing.Quantity + quantity
		if newQuantity > MaxQuantity {
			return apperror.StateConflict(fmt.Sprintf("cart line cannot exceed %d copies", MaxQuantity))
		}
		if newQuantity > stock {
			return apperror.StateConflict("insufficient stock").WithDetail("bookId", bookID)
		}

		if err := tx.UpdateItemQuantity(existing.ID, newQuantity); err != nil {
			return err
		}
		out = CartItem{ID: existing.ID, BookID: bookID, Quantity: newQuantity}
		return nil
	})
	if err != nil {
		return CartItem{}, err
	}
	return out, nil
}

// SetItemQuantity overwrites a line's quantity. Items outside the caller's
// cart are reported as not found, not forbidden, so item ids cannot be
// probed.
func (s *Service) SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (CartItem, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return CartItem{}, apperror.Validation(fmt.Sprintf("quantity must be between %d and %d", MinQuantity, MaxQuantity))
	}
	return s.store.SetItemQuantity(ctx, userID, itemID, quantity)
}

// RemoveItem deletes a line from the caller's cart. Removing an absent
// item is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	return s.store.RemoveItem(ctx, userID, itemID)
}

// ClearCart empties the user's cart. Clearing a missing or already-empty
// cart succeeds silently.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	return s.store.ClearCart(ctx, userID)
}
