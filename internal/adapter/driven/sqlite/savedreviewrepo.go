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
var _ driven.SavedReviewStore = (*SavedReviewRepo)(nil)

// SavedReviewRepo is the SQLite implementation of the SavedReviewStore port interface.
type SavedReviewRepo struct {
	db *DB
}

// NewSavedReviewRepo creates a new SavedReviewRepo backed by the given DB.
func NewSavedReviewRepo(db *DB) *SavedReviewRepo {
	return &SavedReviewRepo{db: db}
}

// Upsert saves the bookmark, updating notes and saved_at if the user already
// saved this review.
func (r *SavedReviewRepo) Upsert(ctx context.Context, saved model.SavedReview) (model.SavedReview, error) {
	const query = `
		INSERT INTO saved_reviews (id, user_id, review_id, saved_at, notes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, review_id) DO UPDATE SET
			saved_at = excluded.saved_at,
			notes = excluded.notes
		RETURNING id
	`

	if saved.ID == "" {
		saved.ID = xid.New().String()
	}
	if saved.SavedAt.IsZero() {
		saved.SavedAt = time.Now().UTC()
	}

	var notes any
	if saved.Notes != nil {
		notes = *saved.Notes
	}

	err := r.db.Writer.QueryRowContext(ctx, query,
		saved.ID, saved.UserID, saved.ReviewID, formatTime(saved.SavedAt), notes,
	).Scan(&saved.ID)
	if err != nil {
		return model.SavedReview{}, fmt.Errorf("upsert saved review %s: %w", saved.ReviewID, err)
	}

	return saved, nil
}

// Get returns the user's bookmark for reviewID, or nil, nil.
func (r *SavedReviewRepo) Get(ctx context.Context, userID, reviewID string) (*model.SavedReview, error) {
	const query = `
		SELECT id, user_id, review_id, saved_at, notes
		FROM saved_reviews
		WHERE user_id = ? AND review_id = ?
	`

	var saved model.SavedReview
	var savedAt string
	var notes sql.NullString

	err := r.db.Reader.QueryRowContext(ctx, query, userID, reviewID).Scan(
		&saved.ID, &saved.UserID, &saved.ReviewID, &savedAt, &notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get saved review %s: %w", reviewID, err)
	}

	saved.SavedAt, err = parseTime(savedAt)
	if err != nil {
		return nil, fmt.Errorf("parse saved_at: %w", err)
	}
	if notes.Valid {
		n := notes.String
		saved.Notes = &n
	}

	return &saved, nil
}

// ListByUser returns the user's bookmarks joined with their reviews, most
// recently saved first.
func (r *SavedReviewRepo) ListByUser(ctx context.Context, userID string) ([]model.SavedReviewWithReview, error) {
	const query = `
		SELECT s.id, s.user_id, s.review_id, s.saved_at, s.notes,
		       rv.id, rv.user_id, rv.repo_name, rv.repo_url, rv.review_data, rv.created_at
		FROM saved_reviews s
		JOIN reviews rv ON rv.id = s.review_id AND rv.user_id = s.user_id
		WHERE s.user_id = ?
		ORDER BY s.saved_at DESC, s.id DESC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query saved reviews for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.SavedReviewWithReview{}
	for rows.Next() {
		var item model.SavedReviewWithReview
		var savedAt, data, createdAt string
		var notes sql.NullString

		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ReviewID, &savedAt, &notes,
			&item.Review.ID, &item.Review.UserID, &item.Review.RepoName, &item.Review.RepoURL,
			&data, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan saved review: %w", err)
		}

		if item.SavedAt, err = parseTime(savedAt); err != nil {
			return nil, fmt.Errorf("parse saved_at: %w", err)
		}
		if item.Review.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &item.Review.ReviewData); err != nil {
			return nil, fmt.Errorf("unmarshal review data: %w", err)
		}
		if notes.Valid {
			n := notes.String
			item.Notes = &n
		}

		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved reviews: %w", err)
	}

	return out, nil
}

// Delete removes the user's bookmark for reviewID.
func (r *SavedReviewRepo) Delete(ctx context.Context, userID, reviewID string) error {
	const query = `DELETE FROM saved_reviews WHERE user_id = ? AND review_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, userID, reviewID)
	if err != nil {
		return fmt.Errorf("delete saved review %s: %w", reviewID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete saved review %s: %w", reviewID, driven.ErrSavedReviewNotFound)
	}

	return nil
}
