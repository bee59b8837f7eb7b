// Package memory provides in-process implementations of the store ports.
// Semantics mirror the SQLite adapter; data lives only as long as the Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

var (
	_ driven.UserStore         = (*UserStore)(nil)
	_ driven.ReviewStore       = (*ReviewStore)(nil)
	_ driven.SavedReviewStore  = (*SavedReviewStore)(nil)
	_ driven.InstallationStore = (*InstallationStore)(nil)
)

// Store holds every collection behind a single lock so cascades stay atomic.
type Store struct {
	mu            sync.RWMutex
	users         map[string]model.User
	reviews       map[string]model.Review
	saved         map[string]model.SavedReview
	installations map[int64]model.Installation
	now           func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:         make(map[string]model.User),
		reviews:       make(map[string]model.Review),
		saved:         make(map[string]model.SavedReview),
		installations: make(map[int64]model.Installation),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the UserStore view of s.
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// Reviews returns the ReviewStore view of s.
func (s *Store) Reviews() *ReviewStore { return &ReviewStore{s: s} }

// SavedReviews returns the SavedReviewStore view of s.
func (s *Store) SavedReviews() *SavedReviewStore { return &SavedReviewStore{s: s} }

// Installations returns the InstallationStore view of s.
func (s *Store) Installations() *InstallationStore { return &InstallationStore{s: s} }

// UserStore implements driven.UserStore.
type UserStore struct{ s *Store }

func (u *UserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (u *UserStore) GetByClerkID(_ context.Context, clerkID string) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	for _, user := range u.s.users {
		if user.ClerkID == clerkID {
			return &user, nil
		}
	}
	return nil, nil
}

func (u *UserStore) Insert(_ context.Context, user model.User) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.users {
		if existing.ClerkID == user.ClerkID {
			return model.User{}, fmt.Errorf("insert user %s: %w", user.ClerkID, driven.ErrUserAlreadyExists)
		}
	}
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = u.s.now()
	}
	u.s.users[user.ID] = user
	return user, nil
}

func (u *UserStore) UpdateEmail(_ context.Context, id, email string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	user.Email = email
	u.s.users[id] = user
	return nil
}

// ReviewStore implements driven.ReviewStore.
type ReviewStore struct{ s *Store }

func (r *ReviewStore) Upsert(_ context.Context, review model.Review) (model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if review.CreatedAt.IsZero() {
		review.CreatedAt = r.s.now()
	}
	for id, existing := range r.s.reviews {
		if existing.UserID == review.UserID && existing.RepoName == review.RepoName {
			review.ID = id
			break
		}
	}
	if review.ID == "" {
		review.ID = xid.New().String()
	}
	r.s.reviews[review.ID] = review
	return review, nil
}

func (r *ReviewStore) GetByID(_ context.Context, id string) (*model.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	review, ok := r.s.reviews[id]
	if !ok {
		return nil, nil
	}
	return &review, nil
}

func (r *ReviewStore) ListByUser(_ context.Context, userID string) ([]model.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.Review{}
	for _, review := range r.s.reviews {
		if review.UserID == userID {
			out = append(out, review)
		}
	}
	sortReviewsNewestFirst(out)
	return out, nil
}

func (r *ReviewStore) GetLatestByRepo(_ context.Context, userID, repoName string) (*model.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *model.Review
	for _, review := range r.s.reviews {
		if review.UserID != userID || review.RepoName != repoName {
			continue
		}
		if latest == nil || review.CreatedAt.After(latest.CreatedAt) {
			rv := review
			latest = &rv
		}
	}
	return latest, nil
}

func (r *ReviewStore) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	review, ok := r.s.reviews[id]
	if !ok || review.UserID != userID {
		return fmt.Errorf("delete review %s: %w", id, driven.ErrReviewNotFound)
	}
	delete(r.s.reviews, id)
	for key, saved := range r.s.saved {
		if saved.ReviewID == id {
			delete(r.s.saved, key)
		}
	}
	return nil
}

func sortReviewsNewestFirst(reviews []model.Review) {
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].ID > reviews[j].ID
		}
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
}

// SavedReviewStore implements driven.SavedReviewStore.
type SavedReviewStore struct{ s *Store }

func savedKey(userID, reviewID string) string { return userID + "\x00" + reviewID }

func (r *SavedReviewStore) Upsert(_ context.Context, saved model.SavedReview) (model.SavedReview, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[saved.ReviewID]; !ok {
		return model.SavedReview{}, fmt.Errorf("upsert saved review %s: %w", saved.ReviewID, driven.ErrReviewNotFound)
	}

	key := savedKey(saved.UserID, saved.ReviewID)
	if existing, ok := r.s.saved[key]; ok {
		saved.ID = existing.ID
	}
	if saved.ID == "" {
		saved.ID = xid.New().String()
	}
	if saved.SavedAt.IsZero() {
		saved.SavedAt = r.s.now()
	}
	r.s.saved[key] = saved
	return saved, nil
}

func (r *SavedReviewStore) Get(_ context.Context, userID, reviewID string) (*model.SavedReview, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	saved, ok := r.s.saved[savedKey(userID, reviewID)]
	if !ok {
		return nil, nil
	}
	return &saved, nil
}

func (r *SavedReviewStore) ListByUser(_ context.Context, userID string) ([]model.SavedReviewWithReview, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.SavedReviewWithReview{}
	for _, saved := range r.s.saved {
		if saved.UserID != userID {
			continue
		}
		review, ok := r.s.reviews[saved.ReviewID]
		if !ok || review.UserID != userID {
			continue
		}
		out = append(out, model.SavedReviewWithReview{SavedReview: saved, Review: review})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

func (r *SavedReviewStore) Delete(_ context.Context, userID, reviewID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := savedKey(userID, reviewID)
	if _, ok := r.s.saved[key]; !ok {
		return fmt.Errorf("delete saved review %s: %w", reviewID, driven.ErrSavedReviewNotFound)
	}
	delete(r.s.saved, key)
	return nil
}

// InstallationStore implements driven.InstallationStore.
type InstallationStore struct{ s *Store }

func (r *InstallationStore) Upsert(_ context.Context, inst model.Installation) (model.Installation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	if inst.Permissions == nil {
		inst.Permissions = map[string]string{}
	}
	if inst.UpdatedAt.IsZero() {
		inst.UpdatedAt = now
	}
	if existing, ok := r.s.installations[inst.InstallationID]; ok {
		if existing.UserID != inst.UserID {
			return model.Installation{}, driven.ErrInstallationOwnedByOther
		}
		inst.ID = existing.ID
		inst.CreatedAt = existing.CreatedAt
	} else {
		if inst.ID == "" {
			inst.ID = xid.New().String()
		}
		if inst.CreatedAt.IsZero() {
			inst.CreatedAt = now
		}
	}
	r.s.installations[inst.InstallationID] = inst
	return inst, nil
}

func (r *InstallationStore) GetByInstallationID(_ context.Context, installationID int64) (*model.Installation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inst, ok := r.s.installations[installationID]
	if !ok {
		return nil, nil
	}
	return &inst, nil
}

func (r *InstallationStore) ListByUser(_ context.Context, userID string) ([]model.Installation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.Installation{}
	for _, inst := range r.s.installations {
		if inst.UserID == userID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountLogin == out[j].AccountLogin {
			return out[i].InstallationID < out[j].InstallationID
		}
		return out[i].AccountLogin < out[j].AccountLogin
	})
	return out, nil
}

func (r *InstallationStore) Delete(_ context.Context, userID string, installationID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inst, ok := r.s.installations[installationID]
	if !ok || inst.UserID != userID {
		return fmt.Errorf("delete installation %d: %w", installationID, driven.ErrInstallationNotFound)
	}
	delete(r.s.installations, installationID)
	return nil
}
