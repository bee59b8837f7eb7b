package driven

import (
	"context"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

// ReviewStore defines the driven port for code review persistence.
// Reviews are unique per (user, repository name).
type ReviewStore interface {
	// Upsert inserts the review or, when the user already has a review for the
	// same repository, replaces its URL, payload and CreatedAt in place.
	// The returned review carries the persisted ID.
	Upsert(ctx context.Context, review model.Review) (model.Review, error)
	// GetByID returns (nil, nil) if the review does not exist.
	GetByID(ctx context.Context, id string) (*model.Review, error)
	// ListByUser returns the user's reviews ordered by CreatedAt descending.
	ListByUser(ctx context.Context, userID string) ([]model.Review, error)
	// GetLatestByRepo returns (nil, nil) if the user has no review for repoName.
	GetLatestByRepo(ctx context.Context, userID, repoName string) (*model.Review, error)
	// Delete removes a review owned by userID. Returns ErrReviewNotFound otherwise.
	Delete(ctx context.Context, userID, id string) error
}
