package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100

	// newReviewWindow is how long a repository's latest review is flagged as new.
	newReviewWindow = 5 * time.Minute
)

// SaveReviewInput is the analyzer output submitted for one repository.
type SaveReviewInput struct {
	RepoName   string
	RepoURL    string
	ReviewData model.ReviewData
}

// ReviewService stores review results and serves the per-review read paths.
type ReviewService struct {
	users   driven.UserStore
	reviews driven.ReviewStore
	saved   driven.SavedReviewStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewReviewService creates a new ReviewService with the required dependencies.
func NewReviewService(
	users driven.UserStore,
	reviews driven.ReviewStore,
	saved driven.SavedReviewStore,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		users:   users,
		reviews: reviews,
		saved:   saved,
		logger:  loggerOrDefault(logger),
		now:     utcNow,
	}
}

// SaveReview validates and stores a review, replacing any earlier review the
// caller saved for the same repository. It returns the review id.
func (s *ReviewService) SaveReview(ctx context.Context, clerkID string, in SaveReviewInput) (string, error) {
	const op = "saveReview"

	in.RepoName = strings.TrimSpace(in.RepoName)
	in.RepoURL = strings.TrimSpace(in.RepoURL)
	if err := validateReview(in); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.reviews.Upsert(ctx, model.Review{
		UserID:     user.ID,
		RepoName:   in.RepoName,
		RepoURL:    in.RepoURL,
		ReviewData: in.ReviewData,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("review saved",
		"review_id", saved.ID,
		"repo", saved.RepoName,
		"issues", saved.ReviewData.Summary.TotalIssues,
	)
	return saved.ID, nil
}

func validateReview(in SaveReviewInput) error {
	if in.RepoName == "" {
		return apperror.ValidationFailed("repoName", "repository name is required")
	}
	if in.RepoURL == "" {
		return apperror.ValidationFailed("repoUrl", "repository URL is required")
	}
	for i, issue := range in.ReviewData.Issues {
		if !issue.Severity.Valid() {
			return apperror.ValidationFailed(
				fmt.Sprintf("reviewData.issues[%d].severity", i),
				fmt.Sprintf("severity %q must be one of critical, major, minor", issue.Severity),
			)
		}
	}
	return nil
}

// GetUserReviews returns all of the caller's reviews, newest first.
func (s *ReviewService) GetUserReviews(ctx context.Context, clerkID string) ([]model.Review, error) {
	const op = "getUserReviews"

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := s.reviews.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, nil
}

// GetReview returns one of the caller's reviews with its bookmark state.
// Reviews owned by someone else are reported as not found.
func (s *ReviewService) GetReview(ctx context.Context, clerkID, reviewID string) (*model.ReviewDetail, error) {
	const op = "getReview"

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if review == nil || review.UserID != user.ID {
		return nil, fmt.Errorf("%s: %w", op, apperror.NotFound("review", reviewID))
	}

	detail := &model.ReviewDetail{Review: *review}

	saved, err := s.saved.Get(ctx, user.ID, reviewID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if saved != nil {
		detail.IsSaved = true
		detail.SavedNotes = saved.Notes
	}

	return detail, nil
}

// GetRecentReviews returns up to limit of the caller's newest reviews, each
// with a relative age. limit defaults to 10 and is capped at 100.
func (s *ReviewService) GetRecentReviews(ctx context.Context, clerkID string, limit int) ([]model.RecentReview, error) {
	const op = "getRecentReviews"

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := s.reviews.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limit = clampLimit(limit, defaultRecentLimit, maxRecentLimit)
	if len(reviews) > limit {
		reviews = reviews[:limit]
	}

	now := s.now()
	out := make([]model.RecentReview, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, model.RecentReview{
			Review:  review,
			TimeAgo: humanize.RelTime(review.CreatedAt, now, "ago", "from now"),
		})
	}
	return out, nil
}

// GetRepoData returns the caller's latest review for repoName, or nil when
// the repository has never been reviewed.
func (s *ReviewService) GetRepoData(ctx context.Context, clerkID, repoName string) (*model.RepoSnapshot, error) {
	const op = "getRepoData"

	repoName = strings.TrimSpace(repoName)
	if repoName == "" {
		return nil, fmt.Errorf("%s: %w", op, apperror.ValidationFailed("repo", "repository name is required"))
	}

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	review, err := s.reviews.GetLatestByRepo(ctx, user.ID, repoName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if review == nil {
		return nil, nil
	}

	return &model.RepoSnapshot{
		Review: *review,
		IsNew:  s.now().Sub(review.CreatedAt) < newReviewWindow,
	}, nil
}

// DeleteReview removes one of the caller's reviews along with any bookmarks
// pointing at it.
func (s *ReviewService) DeleteReview(ctx context.Context, clerkID, reviewID string) error {
	const op = "deleteReview"

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.reviews.Delete(ctx, user.ID, reviewID)
	if errors.Is(err, driven.ErrReviewNotFound) {
		return fmt.Errorf("%s: %w", op, apperror.NotFound("review", reviewID))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("review deleted", "review_id", reviewID)
	return nil
}

func clampLimit(n, fallback, ceiling int) int {
	if n <= 0 {
		return fallback
	}
	if n > ceiling {
		return ceiling
	}
	return n
}
