package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bookstore-api/pkg/apperror"
)

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewReview struct {
	BookID  string `json:"book_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// BookStats aggregates review and favorite counts for one book.
type BookStats struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
	FavoriteCount int     `json:"favorite_count"`
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

func (c *Conf) InsertReview(ctx context.Context, userID string, nr NewReview) (Review, error) {
	r := Review{
		ID:      uuid.NewString(),
		UserID:  userID,
		BookID:  nr.BookID,
		Rating:  nr.Rating,
		Comment: nr.Comment,
	}
	query := `
		INSERT INTO reviews (id, user_id, book_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, query, r.ID, r.UserID, r.BookID, r.Rating, r.Comment).
		Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Review{}, fmt.Errorf("failed to insert review: %w", err)
	}
	return r, nil
}

// UpdateReview only touches reviews owned by the caller.
func (c *Conf) UpdateReview(ctx context.Context, userID, reviewID string, rating int, comment string) (Review, error) {
	owner, err := c.reviewOwner(ctx, reviewID)
	if err != nil {
		return Review{}, err
	}
	if owner != userID {
		return Review{}, apperror.Forbidden("not your review")
	}

	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, user_id, book_id, rating, comment, created_at, updated_at
	`
	var r Review
	err = c.db.QueryRowContext(ctx, query, rating, comment, reviewID).Scan(
		&r.ID, &r.UserID, &r.BookID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return Review{}, fmt.Errorf("failed to update review: %w", err)
	}
	return r, nil
}

func (c *Conf) DeleteReview(ctx context.Context, userID, reviewID string) error {
	owner, err := c.reviewOwner(ctx, reviewID)
	if err != nil {
		return err
	}
	if owner != userID {
		return apperror.Forbidden("not your review")
	}

	if _, err := c.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (c *Conf) reviewOwner(ctx context.Context, reviewID string) (string, error) {
	var owner string
	err := c.db.QueryRowContext(ctx, `SELECT user_id FROM reviews WHERE id = $1`, reviewID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperror.NotFound("review not found")
		}
		return "", fmt.Errorf("failed to query review: %w", err)
	}
	return owner, nil
}

func (c *Conf) ListByBook(ctx context.Context, bookID string, limit, offset int) ([]Review, int, error) {
	return c.list(ctx, `book_id = $1`, bookID, limit, offset)
}

func (c *Conf) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Review, int, error) {
	return c.list(ctx, `user_id = $1`, userID, limit, offset)
}

func (c *Conf) list(ctx context.Context, where, arg string, limit, offset int) ([]Review, int, error) {
	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := `
		SELECT id, user_id, book_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE ` + where + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, query, arg, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var items []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.BookID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating reviews: %w", err)
	}
	return items, total, nil
}

// BookStats returns average rating, review count and favorite count.
func (c *Conf) BookStats(ctx context.Context, bookID string) (BookStats, error) {
	var s BookStats
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE book_id = $1
	`
	if err := c.db.QueryRowContext(ctx, query, bookID).Scan(&s.AverageRating, &s.ReviewCount); err != nil {
		return BookStats{}, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites WHERE book_id = $1`, bookID).Scan(&s.FavoriteCount); err != nil {
		return BookStats{}, fmt.Errorf("failed to count favorites: %w", err)
	}
	return s, nil
}
