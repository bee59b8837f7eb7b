package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

// SavedReviewService manages the caller's bookmarks.
type SavedReviewService struct {
	users   driven.UserStore
	reviews driven.ReviewStore
	saved   driven.SavedReviewStore
	notes   *bluemonday.Policy
	logger  *slog.Logger
	now     func() time.Time
}

// NewSavedReviewService creates a new SavedReviewService.
func NewSavedReviewService(
	users driven.UserStore,
	reviews driven.ReviewStore,
	saved driven.SavedReviewStore,
	logger *slog.Logger,
) *SavedReviewService {
	return &SavedReviewService{
		users:   users,
		reviews: reviews,
		saved:   saved,
		notes:   bluemonday.StrictPolicy(),
		logger:  loggerOrDefault(logger),
		now:     utcNow,
	}
}

// SaveForLater bookmarks one of the caller's reviews. Saving the same review
// again replaces the notes and bumps the saved time. Returns the bookmark id.
func (s *SavedReviewService) SaveForLater(ctx context.Context, clerkID, reviewID string, notes *string) (string, error) {
	const op = "saveReviewForLater"

	reviewID = strings.TrimSpace(reviewID)
	if reviewID == "" {
		return "", fmt.Errorf("%s: %w", op, apperror.ValidationFailed("reviewId", "review id is required"))
	}

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if review == nil || review.UserID != user.ID {
		return "", fmt.Errorf("%s: %w", op, apperror.NotFound("review", reviewID))
	}

	saved, err := s.saved.Upsert(ctx, model.SavedReview{
		UserID:   user.ID,
		ReviewID: reviewID,
		SavedAt:  s.now(),
		Notes:    s.cleanNotes(notes),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("review saved for later", "review_id", reviewID, "saved_id", saved.ID)
	return saved.ID, nil
}

// cleanNotes strips markup from user notes. Blank notes are dropped.
func (s *SavedReviewService) cleanNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	cleaned := strings.TrimSpace(s.notes.Sanitize(*notes))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// RemoveSavedReview deletes the caller's bookmark for reviewID.
func (s *SavedReviewService) RemoveSavedReview(ctx context.Context, clerkID, reviewID string) error {
	const op = "removeSavedReview"

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.saved.Delete(ctx, user.ID, reviewID)
	if errors.Is(err, driven.ErrSavedReviewNotFound) {
		return fmt.Errorf("%s: %w", op, apperror.NotFound("saved review", reviewID))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSavedReviews returns the caller's bookmarks with their reviews, most
// recently saved first.
func (s *SavedReviewService) GetSavedReviews(ctx context.Context, clerkID string) ([]model.SavedReviewWithReview, error) {
	const op = "getSavedReviews"

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.saved.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}
