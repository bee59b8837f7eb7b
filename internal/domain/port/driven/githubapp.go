package driven

import (
	"context"

	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

// GitHubAppClient defines the driven port for calls made as a GitHub App.
// Implementations mint a fresh installation token for every call.
type GitHubAppClient interface {
	// ListInstallationRepositories returns one page of repositories the
	// installation can access.
	ListInstallationRepositories(ctx context.Context, installationID int64, perPage, page int) (*model.InstallationRepositoryPage, error)
}
