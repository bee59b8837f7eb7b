package driven

import (
	"context"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

// SavedReviewStore defines the driven port for review bookmarks.
// A user has at most one saved row per review.
type SavedReviewStore interface {
	// Upsert inserts the bookmark or updates notes and SavedAt when the pair
	// already exists. The returned value carries the persisted ID.
	Upsert(ctx context.Context, saved model.SavedReview) (model.SavedReview, error)
	// Get returns (nil, nil) if the user has not saved the review.
	Get(ctx context.Context, userID, reviewID string) (*model.SavedReview, error)
	// ListByUser returns bookmarks joined with their reviews, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.SavedReviewWithReview, error)
	// Delete returns ErrSavedReviewNotFound if no row exists for the pair.
	Delete(ctx context.Context, userID, reviewID string) error
}
