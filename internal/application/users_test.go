package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewdash/internal/adapter/driven/memory"
	"github.com/ericfisherdev/reviewdash/internal/apperror"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

func TestSaveUser_Idempotent(t *testing.T) {
	store := memory.NewStore()
	svc := NewUserService(store.Users(), nil)
	ctx := context.Background()

	first, err := svc.SaveUser(ctx, "user_1", "dev@example.com")
	require.NoError(t, err)
	second, err := svc.SaveUser(ctx, "user_1", "dev@example.com")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSaveUser_PatchesChangedEmail(t *testing.T) {
	store := memory.NewStore()
	svc := NewUserService(store.Users(), nil)
	ctx := context.Background()

	id, err := svc.SaveUser(ctx, "user_1", "old@example.com")
	require.NoError(t, err)
	again, err := svc.SaveUser(ctx, "user_1", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	user, err := store.Users().GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "new@example.com", user.Email)
}

func TestSaveUser_MissingIdentity(t *testing.T) {
	svc := NewUserService(memory.NewStore().Users(), nil)

	_, err := svc.SaveUser(context.Background(), " ", "dev@example.com")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

// lateUserStore simulates a concurrent sign-in landing between our lookup
// and our insert.
type lateUserStore struct {
	*memory.UserStore
	raced bool
}

func (s *lateUserStore) GetByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	if !s.raced {
		s.raced = true
		if _, err := s.UserStore.Insert(ctx, model.User{ClerkID: clerkID, Email: "other@example.com"}); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s.UserStore.GetByClerkID(ctx, clerkID)
}

func TestSaveUser_InsertRaceReturnsWinner(t *testing.T) {
	store := memory.NewStore()
	users := &lateUserStore{UserStore: store.Users()}
	svc := NewUserService(users, nil)
	ctx := context.Background()

	id, err := svc.SaveUser(ctx, "user_1", "dev@example.com")
	require.NoError(t, err)

	winner, err := store.Users().GetByClerkID(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, winner.ID, id)
}
