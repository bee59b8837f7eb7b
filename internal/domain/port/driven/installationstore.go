package driven

import (
	"context"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

// InstallationStore defines the driven port for GitHub App installation records.
type InstallationStore interface {
	// Upsert inserts the installation or patches every mutable field of the row
	// with the same InstallationID, bumping UpdatedAt. CreatedAt is preserved.
	// A row owned by a different user is left untouched and
	// ErrInstallationOwnedByOther is returned.
	Upsert(ctx context.Context, inst model.Installation) (model.Installation, error)
	// GetByInstallationID returns (nil, nil) when GitHub's id is unknown.
	GetByInstallationID(ctx context.Context, installationID int64) (*model.Installation, error)
	// ListByUser returns the user's installations ordered by account login.
	ListByUser(ctx context.Context, userID string) ([]model.Installation, error)
	// Delete returns ErrInstallationNotFound if userID does not own installationID.
	Delete(ctx context.Context, userID string, installationID int64) error
}
