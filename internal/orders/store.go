package orders

import "context"

// Store is the persistence boundary of the order engine. ExecTx runs fn
// inside one transaction: every mutation fn performs commits or rolls
// back as a unit, and reads through Tx see a consistent snapshot with
// the touched book rows locked against concurrent order traffic.
type Store interface {
	ExecTx(ctx context.Context, fn func(Tx) error) error
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]Order, int, error)
}

// Tx exposes the mutations the engine composes into its two atomic
// units. Implementations must lock the rows returned by CartLines and
// GetOrderForUpdate for the remainder of the transaction.
type Tx interface {
	CartLines(userID string) (cartID string, lines []CartLine, err error)
	InsertOrder(o Order) error
	DecrementStock(bookID string, quantity int) error
	RestoreStock(bookID string, quantity int) error
	ClearCart(cartID string) error
	GetOrderForUpdate(orderID string) (Order, error)
	SetStatus(orderID, status string) error
}
