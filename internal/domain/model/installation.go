package model

import "time"

// Installation records a GitHub App installation owned by a dashboard user.
// InstallationID is GitHub's numeric id and is unique across all users.
type Installation struct {
	ID                  string
	InstallationID      int64
	UserID              string
	AccountLogin        string
	AccountID           int64
	AccountType         string
	RepositorySelection RepositorySelection
	Permissions         map[string]string
	AppSlug             string
	TargetType          string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// InstallationRepository is the subset of GitHub repository metadata the
// dashboard shows when a user picks a repository to review.
type InstallationRepository struct {
	ID            int64
	Name          string
	FullName      string
	Private       bool
	HTMLURL       string
	Description   string
	DefaultBranch string
	Language      string
	UpdatedAt     time.Time
}

// InstallationRepositoryPage is one page of repositories accessible to an
// installation, as reported by GitHub.
type InstallationRepositoryPage struct {
	TotalCount   int
	Repositories []InstallationRepository
}
