package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bookstore-api/pkg/apperror"
)

// Conf is the postgres-backed Store.
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

func (c *Conf) SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (CartItem, error) {
	query := `
		UPDATE cart_items ci
		SET quantity = $1, updated_at = NOW()
		FROM carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $3
		RETURNING ci.id, ci.book_id, ci.quantity
	`
	var out CartItem
	err := c.db.QueryRowContext(ctx, query, quantity, itemID, userID).Scan(&out.ID, &out.BookID, &out.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CartItem{}, apperror.NotFound("cart item not found")
		}
		return CartItem{}, fmt.Errorf("failed to update cart item: %w", err)
	}
	return out, nil
}

func (c *Conf) RemoveItem(ctx context.Context, userID, itemID string) error {
	query := `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $1 AND ci.cart_id = c.id AND c.user_id = $2
	`
	if _, err := c.db.ExecContext(ctx, query, itemID, userID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (c *Conf) ClearCart(ctx context.Context, userID string) error {
	query := `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1
	`
	if _, err := c.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
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

func (t *pgTx) GetOrCreateCartID(userID string) (string, error) {
	queryCart := `
		SELECT id
		FROM carts
		WHERE user_id = $1
		FOR UPDATE
	`
	var cartID string
	err := t.tx.QueryRowContext(t.ctx, queryCart, userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to query cart: %w", err)
	}

	cartID = uuid.NewString()
	queryCreate := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`
	// ON CONFLICT absorbs the race when two first requests for the same
	// user create the cart concurrently.
	if err := t.tx.QueryRowContext(t.ctx, queryCreate, cartID, userID).Scan(&cartID); err != nil {
		return "", fmt.Errorf("failed to create cart: %w", err)
	}
	return cartID, nil
}

func (t *pgTx) CartHeader(cartID string) (Cart, error) {
	query := `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE id = $1
	`
	var out Cart
	err := t.tx.QueryRowContext(t.ctx, query, cartID).Scan(
		&out.ID, &out.UserID, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to query cart: %w", err)
	}
	return out, nil
}

func (t *pgTx) Items(cartID string) ([]CartItem, error) {
	query := `
		SELECT ci.id, ci.book_id, b.title, b.price, ci.quantity
		FROM cart_items ci
		JOIN books b ON b.id = ci.book_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`
	rows, err := t.tx.QueryContext(t.ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.ID, &item.BookID, &item.Title, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}

func (t *pgTx) ItemForUpdate(cartID, bookID string) (CartItem, bool, error) {
	query := `
		SELECT id, quantity
		FROM cart_items
		WHERE cart_id = $1 AND book_id = $2
		FOR UPDATE
	`
	var item CartItem
	err := t.tx.QueryRowContext(t.ctx, query, cartID, bookID).Scan(&item.ID, &item.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CartItem{}, false, nil
		}
		return CartItem{}, false, fmt.Errorf("failed to query cart item: %w", err)
	}
	item.BookID = bookID
	return item, true, nil
}

func (t *pgTx) InsertItem(cartID string, item CartItem) error {
	query := `
		INSERT INTO cart_items (id, cart_id, book_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	if _, err := t.tx.ExecContext(t.ctx, query, item.ID, cartID, item.BookID, item.Quantity); err != nil {
		return fmt.Errorf("failed to add book to cart: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateItemQuantity(itemID string, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2
	`
	if _, err := t.tx.ExecContext(t.ctx, query, quantity, itemID); err != nil {
		return fmt.Errorf("failed to update cart item quantity: %w", err)
	}
	return nil
}
