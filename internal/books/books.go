package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bookstore-api/pkg/apperror"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) InsertBook(ctx context.Context, nb NewBook) (Book, error) {
	book := Book{
		ID:            uuid.NewString(),
		Title:         nb.Title,
		Author:        nb.Author,
		Description:   nb.Description,
		Price:         nb.Price,
		Stock:         nb.Stock,
		CoverImageURL: nb.CoverImageURL,
	}

	query := `
		INSERT INTO books (id, title, author, description, price, stock, cover_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, query,
		book.ID, book.Title, book.Author, book.Description, book.Price, book.Stock, book.CoverImageURL,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return Book{}, fmt.Errorf("failed to insert book: %w", err)
	}
	return book, nil
}

// GetBookByID returns only non-deleted books; soft-deleted titles are
// invisible to the catalog but still referenced by historical orders.
func (c *Conf) GetBookByID(ctx context.Context, bookID string) (Book, error) {
	query := `
		SELECT id, title, author, description, price, stock, cover_image_url, created_at, updated_at
		FROM books
		WHERE id = $1 AND deleted_at IS NULL
	`
	var b Book
	err := c.db.QueryRowContext(ctx, query, bookID).Scan(
		&b.ID, &b.Title, &b.Author, &b.Description, &b.Price, &b.Stock, &b.CoverImageURL,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, apperror.NotFound("book not found")
		}
		return Book{}, fmt.Errorf("failed to query book: %w", err)
	}
	return b, nil
}

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"title":     "title",
}

// ListBooks returns a page of the catalog plus the total match count.
func (c *Conf) ListBooks(ctx context.Context, f Filter) ([]Book, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []any{}

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		p := fmt.Sprintf("$%d", len(args))
		where = append(where, fmt.Sprintf("(title ILIKE %s OR author ILIKE %s OR description ILIKE %s)", p, p, p))
	}
	if f.MinPrice > 0 {
		args = append(args, f.MinPrice)
		where = append(where, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice > 0 {
		args = append(args, f.MaxPrice)
		where = append(where, fmt.Sprintf("price <= $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM books WHERE ` + whereClause
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	// Sort column and direction come from a fixed whitelist, never from
	// user input directly.
	sortCol, ok := sortColumns[f.Sort]
	if !ok {
		sortCol = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		direction = "ASC"
	}

	args = append(args, f.Limit, f.Offset)
	listQuery := fmt.Sprintf(`
		SELECT id, title, author, description, price, stock, cover_image_url, created_at, updated_at
		FROM books
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortCol, direction, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var items []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.Description, &b.Price, &b.Stock, &b.CoverImageURL,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating books: %w", err)
	}

	return items, total, nil
}

func (c *Conf) UpdateBook(ctx context.Context, bookID string, nb NewBook) (Book, error) {
	query := `
		UPDATE books
		SET title = $1, author = $2, description = $3, price = $4, stock = $5, cover_image_url = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
		RETURNING id, title, author, description, price, stock, cover_image_url, created_at, updated_at
	`
	var b Book
	err := c.db.QueryRowContext(ctx, query,
		nb.Title, nb.Author, nb.Description, nb.Price, nb.Stock, nb.CoverImageURL, bookID,
	).Scan(
		&b.ID, &b.Title, &b.Author, &b.Description, &b.Price, &b.Stock, &b.CoverImageURL,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, apperror.NotFound("book not found")
		}
		return Book{}, fmt.Errorf("failed to update book: %w", err)
	}
	return b, nil
}

// SoftDeleteBook removes the book from the catalog without touching
// order history.
func (c *Conf) SoftDeleteBook(ctx context.Context, bookID string) error {
	query := `
		UPDATE books
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := c.db.ExecContext(ctx, query, bookID)
	if err != nil {
		return fmt.Errorf("failed to soft delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("book not found")
	}
	return nil
}
