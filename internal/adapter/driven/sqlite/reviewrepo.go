package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewStore = (*ReviewRepo)(nil)

// ReviewRepo is the SQLite implementation of the ReviewStore port interface.
// The review payload is stored verbatim as JSON in the review_data column.
type ReviewRepo struct {
	db *DB
}

// NewReviewRepo creates a new ReviewRepo backed by the given DB.
func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

const reviewColumns = `id, user_id, repo_name, repo_url, review_data, created_at`

// Upsert inserts a review or replaces the user's existing review for the same
// repository. The UNIQUE(user_id, repo_name) constraint makes concurrent saves
// converge on a single row; the last writer's payload wins.
func (r *ReviewRepo) Upsert(ctx context.Context, review model.Review) (model.Review, error) {
	const query = `
		INSERT INTO reviews (id, user_id, repo_name, repo_url, review_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, repo_name) DO UPDATE SET
			repo_url = excluded.repo_url,
			review_data = excluded.review_data,
			created_at = excluded.created_at
		RETURNING id
	`

	data, err := json.Marshal(review.ReviewData)
	if err != nil {
		return model.Review{}, fmt.Errorf("marshal review data: %w", err)
	}

	if review.ID == "" {
		review.ID = xid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	err = r.db.Writer.QueryRowContext(ctx, query,
		review.ID, review.UserID, review.RepoName, review.RepoURL,
		string(data), formatTime(review.CreatedAt),
	).Scan(&review.ID)
	if err != nil {
		return model.Review{}, fmt.Errorf("upsert review %s: %w", review.RepoName, err)
	}

	return review, nil
}

// GetByID retrieves a review by id. Returns nil, nil if it does not exist.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`

	review, err := scanReview(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review %s: %w", id, err)
	}
	return review, nil
}

// ListByUser returns all reviews owned by the user, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID string) ([]model.Review, error) {
	const query = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query reviews for user %s: %w", userID, err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, nil
}

// GetLatestByRepo returns the user's newest review for repoName, or nil, nil.
func (r *ReviewRepo) GetLatestByRepo(ctx context.Context, userID, repoName string) (*model.Review, error) {
	const query = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = ? AND repo_name = ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	review, err := scanReview(r.db.Reader.QueryRowContext(ctx, query, userID, repoName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest review for %s: %w", repoName, err)
	}
	return review, nil
}

// Delete removes a review owned by userID. Saved rows cascade.
func (r *ReviewRepo) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM reviews WHERE id = ? AND user_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete review %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete review %s: %w", id, driven.ErrReviewNotFound)
	}

	return nil
}

func scanReview(s scanner) (*model.Review, error) {
	var review model.Review
	var data, createdAt string

	err := s.Scan(&review.ID, &review.UserID, &review.RepoName, &review.RepoURL, &data, &createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &review.ReviewData); err != nil {
		return nil, fmt.Errorf("unmarshal review data: %w", err)
	}

	review.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &review, nil
}
