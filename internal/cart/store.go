package cart

import "context"

// Store is the persistence surface of the cart aggregate. Single-row
// mutations carry the ownership predicate into the statement itself;
// multi-step reads and the upsert run inside ExecTx.
type Store interface {
	ExecTx(ctx context.Context, fn func(Tx) error) error

	// SetItemQuantity overwrites a line's quantity if the item belongs
	// to the user's cart, reporting anything else as not found.
	SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (CartItem, error)
	// RemoveItem deletes a line from the user's cart; absent items are
	// a no-op.
	RemoveItem(ctx context.Context, userID, itemID string) error
	// ClearCart empties the user's cart; a missing or already-empty
	// cart succeeds silently.
	ClearCart(ctx context.Context, userID string) error
}

// Tx is the slice of a transaction the cart service drives. The item
// read locks the row so concurrent adds of the same book serialize.
type Tx interface {
	GetOrCreateCartID(userID string) (string, error)
	CartHeader(cartID string) (Cart, error)
	Items(cartID string) ([]CartItem, error)
	ItemForUpdate(cartID, bookID string) (CartItem, bool, error)
	InsertItem(cartID string, item CartItem) error
	UpdateItemQuantity(itemID string, quantity int) error
}
