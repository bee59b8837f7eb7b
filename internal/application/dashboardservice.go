package application

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

const (
	recentActivitySize = 5
	notificationWindow = 24 * time.Hour
)

// DashboardService derives summary numbers from the caller's reviews. Both
// reads degrade to zero values on failure so the dashboard always renders.
type DashboardService struct {
	users   driven.UserStore
	reviews driven.ReviewStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(users driven.UserStore, reviews driven.ReviewStore, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		users:   users,
		reviews: reviews,
		logger:  loggerOrDefault(logger),
		now:     utcNow,
	}
}

// GetReviewStats aggregates issue counts, the mean quality score and the
// five newest reviews.
func (s *DashboardService) GetReviewStats(ctx context.Context, clerkID string) model.ReviewStats {
	reviews, err := s.load(ctx, clerkID)
	if err != nil {
		s.logger.Warn("getReviewStats: returning empty stats", "error", err)
		return emptyStats()
	}
	return computeStats(reviews)
}

// GetNotificationCount counts reviews from the last 24 hours and the critical
// issues they raised.
func (s *DashboardService) GetNotificationCount(ctx context.Context, clerkID string) model.NotificationCount {
	reviews, err := s.load(ctx, clerkID)
	if err != nil {
		s.logger.Warn("getNotificationCount: returning zero count", "error", err)
		return model.NotificationCount{}
	}

	cutoff := s.now().Add(-notificationWindow)

	var count model.NotificationCount
	for _, review := range reviews {
		if review.CreatedAt.After(cutoff) {
			count.NewReviews++
			count.CriticalIssues += review.ReviewData.Summary.CriticalIssues
		}
	}
	count.TotalNotifications = count.NewReviews + count.CriticalIssues
	return count
}

func (s *DashboardService) load(ctx context.Context, clerkID string) ([]model.Review, error) {
	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return nil, err
	}
	return s.reviews.ListByUser(ctx, user.ID)
}

func emptyStats() model.ReviewStats {
	return model.ReviewStats{RecentActivity: []model.RecentActivity{}}
}

// computeStats expects reviews newest first.
func computeStats(reviews []model.Review) model.ReviewStats {
	stats := emptyStats()
	stats.TotalReviews = len(reviews)

	var scoreSum, scored int
	for _, review := range reviews {
		summary := review.ReviewData.Summary
		stats.TotalIssues += summary.TotalIssues
		stats.CriticalIssues += summary.CriticalIssues
		stats.MajorIssues += summary.MajorIssues
		stats.MinorIssues += summary.MinorIssues
		if summary.CodeQualityScore != nil {
			scoreSum += *summary.CodeQualityScore
			scored++
		}
	}
	if scored > 0 {
		stats.AverageScore = int(math.Round(float64(scoreSum) / float64(scored)))
	}

	for i, review := range reviews {
		if i == recentActivitySize {
			break
		}
		stats.RecentActivity = append(stats.RecentActivity, model.RecentActivity{
			ID:         review.ID,
			RepoName:   review.RepoName,
			IssueCount: review.ReviewData.Summary.TotalIssues,
			Timestamp:  review.CreatedAt,
		})
	}
	return stats
}
