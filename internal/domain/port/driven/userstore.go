// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

// UserStore defines the driven port for user account persistence.
// Getters return (nil, nil) when no row matches.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*model.User, error)
	// Insert stores a new user and returns it with ID and CreatedAt populated.
	Insert(ctx context.Context, user model.User) (model.User, error)
	UpdateEmail(ctx context.Context, id, email string) error
}
