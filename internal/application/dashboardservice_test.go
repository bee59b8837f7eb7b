package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewdash/internal/adapter/driven/memory"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

func newTestDashboardService(store *memory.Store) *DashboardService {
	svc := NewDashboardService(store.Users(), store.Reviews(), nil)
	svc.now = fixedClock
	return svc
}

func TestGetReviewStats_NoReviews(t *testing.T) {
	store := memory.NewStore()
	signIn(t, store, "user_1")

	stats := newTestDashboardService(store).GetReviewStats(context.Background(), "user_1")

	assert.Zero(t, stats.TotalReviews)
	assert.Zero(t, stats.TotalIssues)
	assert.Zero(t, stats.CriticalIssues)
	assert.Zero(t, stats.MajorIssues)
	assert.Zero(t, stats.MinorIssues)
	assert.Zero(t, stats.AverageScore)
	require.NotNil(t, stats.RecentActivity)
	assert.Empty(t, stats.RecentActivity)
}

func TestGetReviewStats_Aggregates(t *testing.T) {
	store := memory.NewStore()
	userID := signIn(t, store, "user_1")

	seedReview(t, store, userID, "a/one", testNow.Add(-3*time.Hour), makeReviewData(2, 1, 0, intPtr(80)))
	seedReview(t, store, userID, "a/two", testNow.Add(-2*time.Hour), makeReviewData(3, 0, 4, intPtr(85)))
	seedReview(t, store, userID, "a/three", testNow.Add(-time.Hour), makeReviewData(0, 2, 1, nil))

	stats := newTestDashboardService(store).GetReviewStats(context.Background(), "user_1")

	assert.Equal(t, 3, stats.TotalReviews)
	assert.Equal(t, 13, stats.TotalIssues)
	assert.Equal(t, 5, stats.CriticalIssues)
	assert.Equal(t, 3, stats.MajorIssues)
	assert.Equal(t, 5, stats.MinorIssues)
	assert.Equal(t, 83, stats.AverageScore, "mean of 80 and 85 rounds half up")

	require.Len(t, stats.RecentActivity, 3)
	assert.Equal(t, "a/three", stats.RecentActivity[0].RepoName)
	assert.Equal(t, 3, stats.RecentActivity[0].IssueCount)
	assert.Equal(t, testNow.Add(-time.Hour), stats.RecentActivity[0].Timestamp)
}

func TestGetReviewStats_RecentActivityCappedAtFive(t *testing.T) {
	store := memory.NewStore()
	userID := signIn(t, store, "user_1")

	for i := range 7 {
		seedReview(t, store, userID, fmt.Sprintf("a/repo-%d", i), testNow.Add(-time.Duration(i)*time.Minute), model.ReviewData{})
	}

	stats := newTestDashboardService(store).GetReviewStats(context.Background(), "user_1")
	assert.Equal(t, 7, stats.TotalReviews)
	require.Len(t, stats.RecentActivity, 5)
	assert.Equal(t, "a/repo-0", stats.RecentActivity[0].RepoName)
	assert.Equal(t, "a/repo-4", stats.RecentActivity[4].RepoName)
}

func TestGetNotificationCount(t *testing.T) {
	store := memory.NewStore()
	userID := signIn(t, store, "user_1")

	seedReview(t, store, userID, "a/recent", testNow.Add(-time.Hour), makeReviewData(2, 0, 0, nil))
	seedReview(t, store, userID, "a/edge", testNow.Add(-23*time.Hour), makeReviewData(1, 3, 0, nil))
	seedReview(t, store, userID, "a/old", testNow.Add(-25*time.Hour), makeReviewData(5, 0, 0, nil))

	count := newTestDashboardService(store).GetNotificationCount(context.Background(), "user_1")

	assert.Equal(t, model.NotificationCount{NewReviews: 2, CriticalIssues: 3, TotalNotifications: 5}, count)
}

type failingReviewStore struct {
	*memory.ReviewStore
}

func (failingReviewStore) ListByUser(context.Context, string) ([]model.Review, error) {
	return nil, errors.New("database is locked")
}

func TestDashboard_DegradesToZeroValues(t *testing.T) {
	store := memory.NewStore()
	signIn(t, store, "user_1")
	ctx := context.Background()

	svc := NewDashboardService(store.Users(), failingReviewStore{store.Reviews()}, nil)

	stats := svc.GetReviewStats(ctx, "user_1")
	assert.Zero(t, stats.TotalReviews)
	assert.Empty(t, stats.RecentActivity)

	assert.Equal(t, model.NotificationCount{}, svc.GetNotificationCount(ctx, "user_1"))
	assert.Equal(t, model.NotificationCount{}, newTestDashboardService(store).GetNotificationCount(ctx, "ghost"))
}
