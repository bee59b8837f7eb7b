package model

import "time"

// ReviewStats summarizes every review a user owns. It is computed at query
// time and never persisted.
type ReviewStats struct {
	TotalReviews   int
	TotalIssues    int
	CriticalIssues int
	MajorIssues    int
	MinorIssues    int
	AverageScore   int
	RecentActivity []RecentActivity
}

// RecentActivity is the dashboard feed projection of a review.
type RecentActivity struct {
	ID         string
	RepoName   string
	IssueCount int
	Timestamp  time.Time
}

// NotificationCount counts reviews from the last day and their critical issues.
type NotificationCount struct {
	NewReviews         int
	CriticalIssues     int
	TotalNotifications int
}

// RecentReview is a review decorated with a human-readable age.
type RecentReview struct {
	Review
	TimeAgo string
}

// RepoSnapshot is the latest review for a repository. IsNew is set when the
// review landed within the last few minutes.
type RepoSnapshot struct {
	Review
	IsNew bool
}

// ReviewDetail is a review together with the caller's bookmark state.
type ReviewDetail struct {
	Review
	IsSaved    bool
	SavedNotes *string
}
