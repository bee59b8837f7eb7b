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

func makeInstallation(userID string, installationID int64, login string) model.Installation {
	return model.Installation{
		InstallationID:      installationID,
		UserID:              userID,
		AccountLogin:        login,
		AccountID:           9001,
		AccountType:         "Organization",
		RepositorySelection: model.RepositorySelectionSelected,
		Permissions:         map[string]string{"contents": "read", "metadata": "read"},
		AppSlug:             "reviewdash",
		TargetType:          "Organization",
	}
}

func TestInstallationRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	user := addTestUser(t, db, "user_1")
	repo := NewInstallationRepo(db)
	ctx := context.Background()

	saved, err := repo.Upsert(ctx, makeInstallation(user.ID, 42, "octo-org"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	got, err := repo.GetByInstallationID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "octo-org", got.AccountLogin)
	assert.Equal(t, model.RepositorySelectionSelected, got.RepositorySelection)
	assert.Equal(t, map[string]string{"contents": "read", "metadata": "read"}, got.Permissions)

	missing, err := repo.GetByInstallationID(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInstallationRepo_UpsertPatchesAndKeepsCreatedAt(t *testing.T) {
	db := setupTestDB(t)
	user := addTestUser(t, db, "user_1")
	repo := NewInstallationRepo(db)
	ctx := context.Background()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inst := makeInstallation(user.ID, 42, "octo-org")
	inst.CreatedAt = created
	inst.UpdatedAt = created
	first, err := repo.Upsert(ctx, inst)
	require.NoError(t, err)

	updated := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	patch := makeInstallation(user.ID, 42, "octo-org-renamed")
	patch.RepositorySelection = model.RepositorySelectionAll
	patch.Permissions = map[string]string{"contents": "write"}
	patch.CreatedAt = updated
	patch.UpdatedAt = updated
	second, err := repo.Upsert(ctx, patch)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, created.Equal(second.CreatedAt), "created_at must survive the patch")

	got, err := repo.GetByInstallationID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "octo-org-renamed", got.AccountLogin)
	assert.Equal(t, model.RepositorySelectionAll, got.RepositorySelection)
	assert.Equal(t, map[string]string{"contents": "write"}, got.Permissions)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, updated.Equal(got.UpdatedAt))
}

func TestInstallationRepo_ListAndDelete(t *testing.T) {
	db := setupTestDB(t)
	alice := addTestUser(t, db, "alice")
	bob := addTestUser(t, db, "bob")
	repo := NewInstallationRepo(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, makeInstallation(alice.ID, 2, "zeta"))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, makeInstallation(alice.ID, 1, "alpha"))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, makeInstallation(bob.ID, 3, "bobs-org"))
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].AccountLogin)
	assert.Equal(t, "zeta", list[1].AccountLogin)

	assert.ErrorIs(t, repo.Delete(ctx, bob.ID, 1), driven.ErrInstallationNotFound)
	require.NoError(t, repo.Delete(ctx, alice.ID, 1))
	assert.ErrorIs(t, repo.Delete(ctx, alice.ID, 1), driven.ErrInstallationNotFound)

	list, err = repo.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInstallationRepo_UpsertNeverChangesOwner(t *testing.T) {
	db := setupTestDB(t)
	alice := addTestUser(t, db, "alice")
	bob := addTestUser(t, db, "bob")
	repo := NewInstallationRepo(db)
	ctx := context.Background()

	original, err := repo.Upsert(ctx, makeInstallation(alice.ID, 42, "octo-org"))
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, makeInstallation(bob.ID, 42, "bob-org"))
	require.ErrorIs(t, err, driven.ErrInstallationOwnedByOther)

	got, err := repo.GetByInstallationID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.UserID)
	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, "octo-org", got.AccountLogin)
}
