package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewdash/internal/adapter/driven/memory"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// signIn registers clerkID and returns the stored user id.
func signIn(t *testing.T, store *memory.Store, clerkID string) string {
	t.Helper()

	id, err := NewUserService(store.Users(), nil).SaveUser(context.Background(), clerkID, clerkID+"@example.com")
	require.NoError(t, err)
	return id
}

func makeReviewData(critical, major, minor int, score *int) model.ReviewData {
	var issues []model.ReviewIssue
	add := func(n int, severity model.Severity) {
		for range n {
			issues = append(issues, model.ReviewIssue{
				ID:          string(severity) + "-issue",
				File:        "main.go",
				Line:        10,
				Severity:    severity,
				Category:    "correctness",
				Title:       "Something is off",
				Description: "Details about the problem.",
			})
		}
	}
	add(critical, model.SeverityCritical)
	add(major, model.SeverityMajor)
	add(minor, model.SeverityMinor)

	return model.ReviewData{
		Summary: model.ReviewSummary{
			TotalIssues:      critical + major + minor,
			CriticalIssues:   critical,
			MajorIssues:      major,
			MinorIssues:      minor,
			CodeQualityScore: score,
		},
		Issues:            issues,
		AnalysisTimestamp: "2026-03-01T11:59:00Z",
		ToolsUsed:         []string{"golangci-lint", "semgrep"},
	}
}

// seedReview stores a review directly so tests control created_at.
func seedReview(t *testing.T, store *memory.Store, userID, repoName string, createdAt time.Time, data model.ReviewData) model.Review {
	t.Helper()

	review, err := store.Reviews().Upsert(context.Background(), model.Review{
		UserID:     userID,
		RepoName:   repoName,
		RepoURL:    "https://github.com/" + repoName,
		ReviewData: data,
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
	return review
}
