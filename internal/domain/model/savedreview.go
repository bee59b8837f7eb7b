package model

import "time"

// SavedReview is a user's bookmark on one of their own reviews.
type SavedReview struct {
	ID       string
	UserID   string
	ReviewID string
	SavedAt  time.Time
	Notes    *string
}

// SavedReviewWithReview pairs a bookmark with the review it points at.
type SavedReviewWithReview struct {
	SavedReview
	Review Review
}
