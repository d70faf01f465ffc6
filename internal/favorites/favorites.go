package favorites

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Price     int       `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// AddFavorite is idempotent: favoriting a book twice keeps one record.
func (c *Conf) AddFavorite(ctx context.Context, userID, bookID string) error {
	query := `
		INSERT INTO favorites (id, user_id, book_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, book_id) DO NOTHING
	`
	if _, err := c.db.ExecContext(ctx, query, uuid.NewString(), userID, bookID); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (c *Conf) RemoveFavorite(ctx context.Context, userID, bookID string) error {
	query := `
		DELETE FROM favorites
		WHERE user_id = $1 AND book_id = $2
	`
	if _, err := c.db.ExecContext(ctx, query, userID, bookID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (c *Conf) ListMyFavorites(ctx context.Context, userID string, limit, offset int) ([]Favorite, int, error) {
	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count favorites: %w", err)
	}

	query := `
		SELECT f.id, f.user_id, f.book_id, b.title, b.author, b.price, f.created_at
		FROM favorites f
		JOIN books b ON b.id = f.book_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var items []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.BookID, &f.Title, &f.Author, &f.Price, &f.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan favorite: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating favorites: %w", err)
	}
	return items, total, nil
}
