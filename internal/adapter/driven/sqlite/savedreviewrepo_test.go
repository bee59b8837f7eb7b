package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

func TestSavedReviewRepo_UpsertUpdatesInPlace(t *testing.T) {
	db := setupTestDB(t)
	user := addTestUser(t, db, "user_1")
	review := addTestReview(t, db, user.ID, "octocat/hello-world", time.Now().UTC())
	repo := NewSavedReviewRepo(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, model.SavedReview{
		UserID:   user.ID,
		ReviewID: review.ID,
		Notes:    strPtr("look at auth"),
		SavedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	later := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	second, err := repo.Upsert(ctx, model.SavedReview{
		UserID:   user.ID,
		ReviewID: review.ID,
		Notes:    strPtr("fixed auth, check tests"),
		SavedAt:  later,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.Get(ctx, user.ID, review.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "fixed auth, check tests", *got.Notes)
	assert.True(t, later.Equal(got.SavedAt))

	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, review.ID, list[0].Review.ID)
	assert.Equal(t, review.ReviewData, list[0].Review.ReviewData)
}

func TestSavedReviewRepo_NilNotes(t *testing.T) {
	db := setupTestDB(t)
	user := addTestUser(t, db, "user_1")
	review := addTestReview(t, db, user.ID, "a/b", time.Now().UTC())
	repo := NewSavedReviewRepo(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, model.SavedReview{UserID: user.ID, ReviewID: review.ID})
	require.NoError(t, err)

	got, err := repo.Get(ctx, user.ID, review.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Notes)
}

func TestSavedReviewRepo_DeleteTwice(t *testing.T) {
	db := setupTestDB(t)
	user := addTestUser(t, db, "user_1")
	review := addTestReview(t, db, user.ID, "a/b", time.Now().UTC())
	repo := NewSavedReviewRepo(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, model.SavedReview{UserID: user.ID, ReviewID: review.ID})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, user.ID, review.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID, review.ID), driven.ErrSavedReviewNotFound)

	missing, err := repo.Get(ctx, user.ID, review.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSavedReviewRepo_CascadeOnReviewDelete(t *testing.T) {
	db := setupTestDB(t)
	user := addTestUser(t, db, "user_1")
	review := addTestReview(t, db, user.ID, "a/b", time.Now().UTC())
	repo := NewSavedReviewRepo(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, model.SavedReview{UserID: user.ID, ReviewID: review.ID})
	require.NoError(t, err)

	require.NoError(t, NewReviewRepo(db).Delete(ctx, user.ID, review.ID))

	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
