package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, clerk_id, email, created_at`

// GetByID retrieves a user by internal id. Returns nil, nil if absent.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return user, nil
}

// GetByClerkID retrieves a user by identity-provider id. Returns nil, nil if absent.
func (r *UserRepo) GetByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE clerk_id = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, clerkID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by clerk id %s: %w", clerkID, err)
	}
	return user, nil
}

// Insert stores a new user. Returns driven.ErrUserAlreadyExists when the
// clerk id is taken.
func (r *UserRepo) Insert(ctx context.Context, user model.User) (model.User, error) {
	const query = `INSERT INTO users (id, clerk_id, email, created_at) VALUES (?, ?, ?, ?)`

	if user.ID == "" {
		user.ID = xid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Writer.ExecContext(ctx, query, user.ID, user.ClerkID, user.Email, formatTime(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("insert user %s: %w", user.ClerkID, driven.ErrUserAlreadyExists)
		}
		return model.User{}, fmt.Errorf("insert user %s: %w", user.ClerkID, err)
	}

	return user, nil
}

// UpdateEmail sets the email of an existing user.
func (r *UserRepo) UpdateEmail(ctx context.Context, id, email string) error {
	const query = `UPDATE users SET email = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, email, id)
	if err != nil {
		return fmt.Errorf("update email for user %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s not found", id)
	}

	return nil
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var createdAt string

	if err := s.Scan(&user.ID, &user.ClerkID, &user.Email, &createdAt); err != nil {
		return nil, err
	}

	var err error
	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &user, nil
}
