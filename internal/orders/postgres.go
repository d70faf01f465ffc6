package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookstore-api/pkg/apperror"
)

// Conf is the postgres-backed Store. All multi-entity mutations run
// through withTx; book rows touched by an order are locked with
// SELECT ... FOR UPDATE so check-then-decrement is serialized per book.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) ExecTx(ctx context.Context, fn func(Tx) error) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&pgTx{ctx: ctx, tx: tx})
	})
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}

type pgTx struct {
	ctx context.Context
	tx  *sql.Tx
}

// CartLines reads the caller's cart and locks the referenced book rows.
// Books are locked in a separate keyed query because FOR UPDATE cannot
// be applied to the nullable side of an outer join; a cart line whose
// book is missing from the locked set has been soft-deleted.
func (t *pgTx) CartLines(userID string) (string, []CartLine, error) {
	queryCart := `
		SELECT id
		FROM carts
		WHERE user_id = $1
		FOR UPDATE
	`
	var cartID string
	err := t.tx.QueryRowContext(t.ctx, queryCart, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("failed to query cart: %w", err)
	}

	queryItems := `
		SELECT book_id, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at
	`
	rows, err := t.tx.QueryContext(t.ctx, queryItems, cartID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var line CartLine
		if err := rows.Scan(&line.BookID, &line.Quantity); err != nil {
			return "", nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	if len(lines) == 0 {
		return cartID, nil, nil
	}

	bookIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		bookIDs = append(bookIDs, line.BookID)
	}

	queryBooks := `
		SELECT id, price, stock
		FROM books
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE
	`
	bookRows, err := t.tx.QueryContext(t.ctx, queryBooks, bookIDs)
	if err != nil {
		return "", nil, fmt.Errorf("failed to lock book rows: %w", err)
	}
	defer bookRows.Close()

	type bookRow struct {
		price int
		stock int
	}
	locked := map[string]bookRow{}
	for bookRows.Next() {
		var id string
		var b bookRow
		if err := bookRows.Scan(&id, &b.price, &b.stock); err != nil {
			return "", nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		locked[id] = b
	}
	if err := bookRows.Err(); err != nil {
		return "", nil, fmt.Errorf("error iterating book rows: %w", err)
	}

	for i := range lines {
		b, ok := locked[lines[i].BookID]
		if !ok {
			continue
		}
		lines[i].Available = true
		lines[i].UnitPrice = b.price
		lines[i].Stock = b.stock
	}

	return cartID, lines, nil
}

func (t *pgTx) InsertOrder(o Order) error {
	queryOrder := `
		INSERT INTO orders (id, user_id, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	if _, err := t.tx.ExecContext(t.ctx, queryOrder, o.ID, o.UserID, o.TotalAmount, o.Status, o.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, book_id, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, item := range o.Items {
		if _, err := t.tx.ExecContext(t.ctx, queryItem, item.ID, o.ID, item.BookID, item.Quantity, item.UnitPrice, o.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

// DecrementStock applies a conditional decrement. The guard is
// redundant under the FOR UPDATE lock but keeps stock >= 0 enforced at
// the statement level as well.
func (t *pgTx) DecrementStock(bookID string, quantity int) error {
	query := `
		UPDATE books
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`
	res, err := t.tx.ExecContext(t.ctx, query, quantity, bookID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperror.StateConflict("insufficient stock").WithDetail("bookId", bookID)
	}
	return nil
}

func (t *pgTx) RestoreStock(bookID string, quantity int) error {
	query := `
		UPDATE books
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2
	`
	if _, err := t.tx.ExecContext(t.ctx, query, quantity, bookID); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

func (t *pgTx) ClearCart(cartID string) error {
	query := `
		DELETE FROM cart_items
		WHERE cart_id = $1
	`
	if _, err := t.tx.ExecContext(t.ctx, query, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (t *pgTx) GetOrderForUpdate(orderID string) (Order, error) {
	query := `
		SELECT id, user_id, total_amount, status, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`
	var o Order
	err := t.tx.QueryRowContext(t.ctx, query, orderID).Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, apperror.NotFound("order not found")
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}

	o.Items, err = scanItems(t.ctx, t.tx, orderID)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (t *pgTx) SetStatus(orderID, status string) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	if _, err := t.tx.ExecContext(t.ctx, query, status, orderID); err != nil {
		return fmt.Errorf("failed to set order status: %w", err)
	}
	return nil
}

func (c *Conf) GetOrder(ctx context.Context, orderID string) (Order, error) {
	query := `
		SELECT id, user_id, total_amount, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	var o Order
	err := c.db.QueryRowContext(ctx, query, orderID).Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, apperror.NotFound("order not found")
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}

	o.Items, err = scanItems(ctx, c.db, orderID)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

var orderSortColumns = map[string]string{
	"createdAt":   "created_at",
	"totalAmount": "total_amount",
}

func (c *Conf) ListOrders(ctx context.Context, f ListFilter) ([]Order, int, error) {
	where := []string{"1=1"}
	args := []any{}

	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM orders WHERE ` + whereClause
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	sortCol, ok := orderSortColumns[f.Sort]
	if !ok {
		sortCol = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		direction = "ASC"
	}

	args = append(args, f.Limit, f.Offset)
	listQuery := fmt.Sprintf(`
		SELECT id, user_id, total_amount, status, created_at, updated_at
		FROM orders
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortCol, direction, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	for i := range items {
		items[i].Items, err = scanItems(ctx, c.db, items[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}

	return items, total, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanItems(ctx context.Context, q querier, orderID string) ([]OrderItem, error) {
	query := `
		SELECT id, book_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`
	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.BookID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}
