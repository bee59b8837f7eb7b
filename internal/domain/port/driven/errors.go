package driven

import "errors"

// Sentinel errors returned by store implementations.
var (
	// ErrReviewNotFound indicates the review does not exist or is not owned by the caller.
	ErrReviewNotFound = errors.New("review not found")

	// ErrSavedReviewNotFound indicates no bookmark exists for the (user, review) pair.
	ErrSavedReviewNotFound = errors.New("saved review not found")

	// ErrInstallationNotFound indicates the installation does not exist or is not owned by the caller.
	ErrInstallationNotFound = errors.New("installation not found")

	// ErrInstallationOwnedByOther indicates an upsert hit a row that belongs to a different user.
	ErrInstallationOwnedByOther = errors.New("installation belongs to another user")
)

// ErrUserAlreadyExists indicates a user with the same identity-provider id exists.
var ErrUserAlreadyExists = errors.New("user already exists")
