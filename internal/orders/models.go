package orders

import "time"

const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

// ValidStatus reports whether s is one of the known order states.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusPaid || s == StatusCancelled
}

// Order is immutable after creation except for its status. Each item
// carries the unit price snapshotted at creation time; later catalog
// price changes never affect an existing order.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	TotalAmount int64       `json:"total_amount"`
	Status      string      `json:"status"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID        string `json:"id"`
	BookID    string `json:"book_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// CartLine is one cart row joined against a locked read of its book.
// Available is false when the book has been soft-deleted since it was
// added to the cart.
type CartLine struct {
	BookID    string
	Quantity  int
	UnitPrice int
	Stock     int
	Available bool
}

// ListFilter narrows and pages order listings.
type ListFilter struct {
	UserID string
	Status string
	Sort   string
	Order  string
	Limit  int
	Offset int
}
