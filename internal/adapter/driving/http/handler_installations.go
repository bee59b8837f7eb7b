package httphandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
	"github.com/ericfisherdev/reviewdash/internal/application"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
)

// SaveInstallation records or patches a GitHub App installation.
func (h *Handler) SaveInstallation(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req SaveInstallationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	inst, err := h.installations.SaveInstallation(r.Context(), clerkID, application.SaveInstallationInput{
		InstallationID:      req.InstallationID,
		AccountLogin:        req.AccountLogin,
		AccountID:           req.AccountID,
		AccountType:         req.AccountType,
		RepositorySelection: model.RepositorySelection(req.RepositorySelection),
		Permissions:         req.Permissions,
		AppSlug:             req.AppSlug,
		TargetType:          req.TargetType,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toInstallationResponse(*inst))
}

// ListInstallations returns the caller's installations.
func (h *Handler) ListInstallations(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	installations, err := h.installations.GetInstallations(r.Context(), clerkID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]InstallationResponse, 0, len(installations))
	for _, inst := range installations {
		resp = append(resp, toInstallationResponse(inst))
	}

	writeJSON(w, http.StatusOK, resp)
}

// RemoveInstallation deletes one of the caller's installations.
func (h *Handler) RemoveInstallation(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	installationID, err := installationIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.installations.RemoveInstallation(r.Context(), clerkID, installationID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// InstallationRepositories lists a page of repositories the installation can
// reach, fetched live from GitHub.
func (h *Handler) InstallationRepositories(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	installationID, err := installationIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	perPage, err := queryInt(r, "per_page")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.installations.FetchInstallationRepositories(r.Context(), clerkID, installationID, perPage, page)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toInstallationRepositoriesResponse(result))
}

func installationIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "installationId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("installationId", "invalid installation id")
	}
	return id, nil
}
