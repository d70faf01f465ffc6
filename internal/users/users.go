package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

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

func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	var exists bool
	queryExists := `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`
	err := c.db.QueryRowContext(ctx, queryExists, nu.Email).Scan(&exists)
	if err != nil {
		return User{}, fmt.Errorf("failed to check existing email: %w", err)
	}
	if exists {
		return User{}, apperror.StateConflict("email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        nu.Email,
		PasswordHash: string(hash),
		Name:         nu.Name,
		Role:         RoleUser,
	}

	queryInsert := `
		INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = c.db.QueryRowContext(ctx, queryInsert,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// GetActiveUserByEmail looks the account up among non-deleted users only.
func (c *Conf) GetActiveUserByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE email = $1 AND deleted_at IS NULL
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperror.NotFound("user not found")
		}
		return User{}, fmt.Errorf("failed to query user by email: %w", err)
	}
	return u, nil
}

func (c *Conf) GetActiveUserByID(ctx context.Context, userID string) (User, error) {
	query := `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperror.NotFound("user not found")
		}
		return User{}, fmt.Errorf("failed to query user by id: %w", err)
	}
	return u, nil
}

func (c *Conf) UpdateName(ctx context.Context, userID string, name string) (User, error) {
	query := `
		UPDATE users
		SET name = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING id, email, password_hash, name, role, created_at, updated_at
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, name, userID).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperror.NotFound("user not found")
		}
		return User{}, fmt.Errorf("failed to update user name: %w", err)
	}
	return u, nil
}

// SoftDeleteUser marks the account deleted. Historical orders keep
// referencing it.
func (c *Conf) SoftDeleteUser(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := c.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to soft delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user not found")
	}
	return nil
}
