package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
	"github.com/ericfisherdev/reviewdash/internal/application"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal","message":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError maps err onto a status code and writes the standard error body.
// Errors without a kind are logged and reported without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := apperror.Kind(err)
	status := statusForKind(kind)
	if errors.Is(err, errBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}

	message := err.Error()
	if kind == "internal" {
		logger.Error("request failed", "error", err)
		message = "internal server error"
	} else if status >= http.StatusInternalServerError {
		logger.Warn("request failed", "kind", kind, "error", err)
	}

	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

func statusForKind(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "unauthenticated":
		return http.StatusUnauthorized
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	case "upstream":
		return http.StatusBadGateway
	case "timeout":
		return http.StatusGatewayTimeout
	case "configuration":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errBodyTooLarge marks decode failures caused by the body size limit.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if isBodyTooLarge(err) {
			return fmt.Errorf("%w: %w", errBodyTooLarge, apperror.ValidationFailed("body", "must not exceed 2 MiB"))
		}
		return apperror.ValidationFailed("body", "invalid request body")
	}
	return nil
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// IDResponse is returned by mutations that create or upsert a record.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is returned by removals.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// SaveUserRequest is the JSON body for the user upsert endpoint.
type SaveUserRequest struct {
	Email string `json:"email"`
}

// SaveReviewRequest is the JSON body for the review save endpoint.
type SaveReviewRequest struct {
	RepoName   string           `json:"repoName"`
	RepoURL    string           `json:"repoUrl"`
	ReviewData model.ReviewData `json:"reviewData"`
}

// SaveForLaterRequest is the JSON body for bookmarking a review.
type SaveForLaterRequest struct {
	ReviewID string  `json:"reviewId"`
	Notes    *string `json:"notes,omitempty"`
}

// SaveInstallationRequest is the JSON body for recording an installation.
type SaveInstallationRequest struct {
	InstallationID      int64             `json:"installationId"`
	AccountLogin        string            `json:"accountLogin"`
	AccountID           int64             `json:"accountId"`
	AccountType         string            `json:"accountType"`
	RepositorySelection string            `json:"repositorySelection"`
	Permissions         map[string]string `json:"permissions"`
	AppSlug             string            `json:"appSlug"`
	TargetType          string            `json:"targetType"`
}

// ReviewResponse is the JSON representation of a stored review.
type ReviewResponse struct {
	ID         string           `json:"id"`
	RepoName   string           `json:"repoName"`
	RepoURL    string           `json:"repoUrl"`
	ReviewData model.ReviewData `json:"reviewData"`
	CreatedAt  string           `json:"createdAt"`
}

// RecentReviewResponse is a review with its relative age.
type RecentReviewResponse struct {
	ReviewResponse
	TimeAgo string `json:"timeAgo"`
}

// RepoDataResponse is the latest review for a repository.
type RepoDataResponse struct {
	ReviewResponse
	IsNew bool `json:"isNew"`
}

// ReviewDetailResponse is a single review with the caller's bookmark state.
type ReviewDetailResponse struct {
	ReviewResponse
	IsSaved        bool    `json:"isSaved"`
	SavedNotes     *string `json:"savedNotes"`
	SavedNotesHTML string  `json:"savedNotesHtml,omitempty"`
}

// SavedReviewResponse is a bookmark joined with its review.
type SavedReviewResponse struct {
	ID        string         `json:"id"`
	ReviewID  string         `json:"reviewId"`
	SavedAt   string         `json:"savedAt"`
	Notes     *string        `json:"notes"`
	NotesHTML string         `json:"notesHtml,omitempty"`
	Review    ReviewResponse `json:"review"`
}

// ReviewStatsResponse is the dashboard summary.
type ReviewStatsResponse struct {
	TotalReviews   int                      `json:"totalReviews"`
	TotalIssues    int                      `json:"totalIssues"`
	CriticalIssues int                      `json:"criticalIssues"`
	MajorIssues    int                      `json:"majorIssues"`
	MinorIssues    int                      `json:"minorIssues"`
	AverageScore   int                      `json:"averageScore"`
	RecentActivity []RecentActivityResponse `json:"recentActivity"`
}

// RecentActivityResponse is one entry of the dashboard activity feed.
type RecentActivityResponse struct {
	ID         string `json:"id"`
	RepoName   string `json:"repoName"`
	IssueCount int    `json:"issueCount"`
	Timestamp  string `json:"timestamp"`
}

// NotificationCountResponse is the badge count for the last day.
type NotificationCountResponse struct {
	NewReviews         int `json:"newReviews"`
	CriticalIssues     int `json:"criticalIssues"`
	TotalNotifications int `json:"totalNotifications"`
}

// InstallationResponse is the JSON representation of an installation.
type InstallationResponse struct {
	ID                  string            `json:"id"`
	InstallationID      int64             `json:"installationId"`
	AccountLogin        string            `json:"accountLogin"`
	AccountID           int64             `json:"accountId"`
	AccountType         string            `json:"accountType"`
	RepositorySelection string            `json:"repositorySelection"`
	Permissions         map[string]string `json:"permissions"`
	AppSlug             string            `json:"appSlug"`
	TargetType          string            `json:"targetType"`
	CreatedAt           string            `json:"createdAt"`
	UpdatedAt           string            `json:"updatedAt"`
}

// InstallationRepositoryResponse is one repository reachable by an installation.
type InstallationRepositoryResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"htmlUrl"`
	Description   string `json:"description"`
	DefaultBranch string `json:"defaultBranch"`
	Language      string `json:"language"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// InstallationRepositoriesResponse is one page of installation repositories.
type InstallationRepositoriesResponse struct {
	Installation InstallationResponse             `json:"installation"`
	Repositories []InstallationRepositoryResponse `json:"repositories"`
	TotalCount   int                              `json:"totalCount"`
	Page         int                              `json:"page"`
	PerPage      int                              `json:"perPage"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toReviewResponse(r model.Review) ReviewResponse {
	data := r.ReviewData
	if data.Issues == nil {
		data.Issues = []model.ReviewIssue{}
	}
	if data.ToolsUsed == nil {
		data.ToolsUsed = []string{}
	}

	return ReviewResponse{
		ID:         r.ID,
		RepoName:   r.RepoName,
		RepoURL:    r.RepoURL,
		ReviewData: data,
		CreatedAt:  formatTime(r.CreatedAt),
	}
}

func toSavedReviewResponse(s model.SavedReviewWithReview) SavedReviewResponse {
	return SavedReviewResponse{
		ID:        s.ID,
		ReviewID:  s.ReviewID,
		SavedAt:   formatTime(s.SavedAt),
		Notes:     s.Notes,
		NotesHTML: renderNotes(s.Notes),
		Review:    toReviewResponse(s.Review),
	}
}

func toReviewStatsResponse(s model.ReviewStats) ReviewStatsResponse {
	activity := make([]RecentActivityResponse, 0, len(s.RecentActivity))
	for _, a := range s.RecentActivity {
		activity = append(activity, RecentActivityResponse{
			ID:         a.ID,
			RepoName:   a.RepoName,
			IssueCount: a.IssueCount,
			Timestamp:  formatTime(a.Timestamp),
		})
	}

	return ReviewStatsResponse{
		TotalReviews:   s.TotalReviews,
		TotalIssues:    s.TotalIssues,
		CriticalIssues: s.CriticalIssues,
		MajorIssues:    s.MajorIssues,
		MinorIssues:    s.MinorIssues,
		AverageScore:   s.AverageScore,
		RecentActivity: activity,
	}
}

func toInstallationResponse(i model.Installation) InstallationResponse {
	permissions := i.Permissions
	if permissions == nil {
		permissions = map[string]string{}
	}

	return InstallationResponse{
		ID:                  i.ID,
		InstallationID:      i.InstallationID,
		AccountLogin:        i.AccountLogin,
		AccountID:           i.AccountID,
		AccountType:         i.AccountType,
		RepositorySelection: string(i.RepositorySelection),
		Permissions:         permissions,
		AppSlug:             i.AppSlug,
		TargetType:          i.TargetType,
		CreatedAt:           formatTime(i.CreatedAt),
		UpdatedAt:           formatTime(i.UpdatedAt),
	}
}

func toInstallationRepositoriesResponse(r *application.InstallationRepositories) InstallationRepositoriesResponse {
	repos := make([]InstallationRepositoryResponse, 0, len(r.Repositories))
	for _, repo := range r.Repositories {
		repos = append(repos, InstallationRepositoryResponse{
			ID:            repo.ID,
			Name:          repo.Name,
			FullName:      repo.FullName,
			Private:       repo.Private,
			HTMLURL:       repo.HTMLURL,
			Description:   repo.Description,
			DefaultBranch: repo.DefaultBranch,
			Language:      repo.Language,
			UpdatedAt:     formatTime(repo.UpdatedAt),
		})
	}

	return InstallationRepositoriesResponse{
		Installation: toInstallationResponse(r.Installation),
		Repositories: repos,
		TotalCount:   r.TotalCount,
		Page:         r.Page,
		PerPage:      r.PerPage,
	}
}
