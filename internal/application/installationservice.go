package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

const (
	defaultReposPerPage = 30
	maxReposPerPage     = 100
)

// SaveInstallationInput is the installation metadata reported by GitHub after
// the caller installs the App.
type SaveInstallationInput struct {
	InstallationID      int64
	AccountLogin        string
	AccountID           int64
	AccountType         string
	RepositorySelection model.RepositorySelection
	Permissions         map[string]string
	AppSlug             string
	TargetType          string
}

// InstallationRepositories is one page of repositories for an installation.
type InstallationRepositories struct {
	Installation model.Installation
	Repositories []model.InstallationRepository
	TotalCount   int
	Page         int
	PerPage      int
}

// InstallationService manages installation records and lists the
// repositories an installation can reach.
type InstallationService struct {
	users         driven.UserStore
	installations driven.InstallationStore
	github        driven.GitHubAppClient
	logger        *slog.Logger
	now           func() time.Time
}

// NewInstallationService creates a new InstallationService. github may be nil
// when App credentials are not configured; repository listing then fails
// with a configuration error.
func NewInstallationService(
	users driven.UserStore,
	installations driven.InstallationStore,
	github driven.GitHubAppClient,
	logger *slog.Logger,
) *InstallationService {
	return &InstallationService{
		users:         users,
		installations: installations,
		github:        github,
		logger:        loggerOrDefault(logger),
		now:           utcNow,
	}
}

// SaveInstallation records or patches an installation for the caller. An
// installation already claimed by another user is a conflict.
func (s *InstallationService) SaveInstallation(ctx context.Context, clerkID string, in SaveInstallationInput) (*model.Installation, error) {
	const op = "saveInstallation"

	in.AccountLogin = strings.TrimSpace(in.AccountLogin)
	if err := validateInstallation(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.installations.GetByInstallationID(ctx, in.InstallationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil && existing.UserID != user.ID {
		return nil, fmt.Errorf("%s: %w", op, apperror.Conflict("installation", strconv.FormatInt(in.InstallationID, 10)))
	}

	now := s.now()
	saved, err := s.installations.Upsert(ctx, model.Installation{
		InstallationID:      in.InstallationID,
		UserID:              user.ID,
		AccountLogin:        in.AccountLogin,
		AccountID:           in.AccountID,
		AccountType:         in.AccountType,
		RepositorySelection: in.RepositorySelection,
		Permissions:         in.Permissions,
		AppSlug:             in.AppSlug,
		TargetType:          in.TargetType,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if errors.Is(err, driven.ErrInstallationOwnedByOther) {
		// Another user claimed it between the lookup and the write.
		return nil, fmt.Errorf("%s: %w", op, apperror.Conflict("installation", strconv.FormatInt(in.InstallationID, 10)))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("installation saved",
		"installation_id", saved.InstallationID,
		"account", saved.AccountLogin,
		"updated", existing != nil,
	)
	return &saved, nil
}

func validateInstallation(in SaveInstallationInput) error {
	if in.InstallationID <= 0 {
		return apperror.ValidationFailed("installationId", "installation id must be positive")
	}
	if in.AccountLogin == "" {
		return apperror.ValidationFailed("accountLogin", "account login is required")
	}
	if !in.RepositorySelection.Valid() {
		return apperror.ValidationFailed("repositorySelection",
			fmt.Sprintf("repository selection %q must be all or selected", in.RepositorySelection))
	}
	return nil
}

// GetInstallations returns the caller's installations ordered by account login.
func (s *InstallationService) GetInstallations(ctx context.Context, clerkID string) ([]model.Installation, error) {
	const op = "getInstallations"

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	installations, err := s.installations.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return installations, nil
}

// RemoveInstallation deletes one of the caller's installations.
func (s *InstallationService) RemoveInstallation(ctx context.Context, clerkID string, installationID int64) error {
	const op = "removeInstallation"

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.installations.Delete(ctx, user.ID, installationID)
	if errors.Is(err, driven.ErrInstallationNotFound) {
		return fmt.Errorf("%s: %w", op, apperror.NotFound("installation", strconv.FormatInt(installationID, 10)))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("installation removed", "installation_id", installationID)
	return nil
}

// FetchInstallationRepositories lists a page of repositories for one of the
// caller's installations. perPage defaults to 30 and is capped at 100; page
// defaults to 1.
func (s *InstallationService) FetchInstallationRepositories(ctx context.Context, clerkID string, installationID int64, perPage, page int) (*InstallationRepositories, error) {
	const op = "fetchInstallationRepositories"

	user, err := resolveUser(ctx, s.users, clerkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	installation, err := s.installations.GetByInstallationID(ctx, installationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if installation == nil || installation.UserID != user.ID {
		return nil, fmt.Errorf("%s: %w", op, apperror.NotFound("installation", strconv.FormatInt(installationID, 10)))
	}

	if s.github == nil {
		return nil, fmt.Errorf("%s: %w", op, apperror.Configuration("github app credentials are not configured"))
	}

	perPage = clampLimit(perPage, defaultReposPerPage, maxReposPerPage)
	if page <= 0 {
		page = 1
	}

	listed, err := s.github.ListInstallationRepositories(ctx, installationID, perPage, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &InstallationRepositories{
		Installation: *installation,
		Repositories: listed.Repositories,
		TotalCount:   listed.TotalCount,
		Page:         page,
		PerPage:      perPage,
	}, nil
}
