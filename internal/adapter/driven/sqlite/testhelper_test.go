package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() keeps parallel tests isolated.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it cannot be read as query parameters.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	db, err := openDB(context.Background(), dsn, dsn)
	require.NoError(t, err, "open test db")

	if err := RunMigrations(db.Writer, nil); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// addTestUser inserts a user for FK constraints and returns it.
func addTestUser(t *testing.T, db *DB, clerkID string) model.User {
	t.Helper()
	user, err := NewUserRepo(db).Insert(context.Background(), model.User{
		ClerkID: clerkID,
		Email:   clerkID + "@example.com",
	})
	require.NoError(t, err)
	return user
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// makeReviewData builds a payload exercising every optional field.
func makeReviewData(critical int) model.ReviewData {
	return model.ReviewData{
		Summary: model.ReviewSummary{
			TotalIssues:      critical + 2,
			CriticalIssues:   critical,
			MajorIssues:      1,
			MinorIssues:      1,
			CodeQualityScore: intPtr(82),
		},
		Issues: []model.ReviewIssue{
			{
				ID: "i1", File: "main.go", Line: 10, Severity: model.SeverityMajor,
				Category: "bug", Title: "nil deref", Description: "x may be nil",
				Suggestion: strPtr("check x"),
			},
			{
				ID: "i2", File: "util.go", Line: 3, Severity: model.SeverityMinor,
				Category: "style", Title: "naming", Description: "rename y",
			},
		},
		SentryErrors: &[]model.SentryError{
			{
				ID: "s1", Title: "panic", Level: "error", Count: 4,
				FirstSeen: "2026-01-01T00:00:00Z", LastSeen: "2026-01-02T00:00:00Z",
				URL: strPtr("https://sentry.io/issues/s1"),
			},
		},
		AnalysisTimestamp: "2026-02-10T12:00:00Z",
		ToolsUsed:         []string{"golangci-lint", "semgrep"},
	}
}

func addTestReview(t *testing.T, db *DB, userID, repoName string, createdAt time.Time) model.Review {
	t.Helper()
	review, err := NewReviewRepo(db).Upsert(context.Background(), model.Review{
		UserID:     userID,
		RepoName:   repoName,
		RepoURL:    "https://github.com/" + repoName,
		ReviewData: makeReviewData(1),
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
	return review
}
