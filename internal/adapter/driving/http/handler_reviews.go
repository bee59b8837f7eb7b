package httphandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
	"github.com/ericfisherdev/reviewdash/internal/application"
)

// SaveReview stores an analyzer result for a repository.
func (h *Handler) SaveReview(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req SaveReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := h.reviews.SaveReview(r.Context(), clerkID, application.SaveReviewInput{
		RepoName:   req.RepoName,
		RepoURL:    req.RepoURL,
		ReviewData: req.ReviewData,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

// ListReviews returns all of the caller's reviews, newest first.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	reviews, err := h.reviews.GetUserReviews(r.Context(), clerkID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, toReviewResponse(review))
	}

	writeJSON(w, http.StatusOK, resp)
}

// RecentReviews returns the caller's newest reviews with a relative age.
func (h *Handler) RecentReviews(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	reviews, err := h.reviews.GetRecentReviews(r.Context(), clerkID, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]RecentReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, RecentReviewResponse{
			ReviewResponse: toReviewResponse(review.Review),
			TimeAgo:        review.TimeAgo,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ReviewStats returns the dashboard summary. It never fails once the caller
// is identified.
func (h *Handler) ReviewStats(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	stats := h.dashboard.GetReviewStats(r.Context(), clerkID)
	writeJSON(w, http.StatusOK, toReviewStatsResponse(stats))
}

// NotificationCount returns the caller's notification badge numbers.
func (h *Handler) NotificationCount(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	count := h.dashboard.GetNotificationCount(r.Context(), clerkID)
	writeJSON(w, http.StatusOK, NotificationCountResponse{
		NewReviews:         count.NewReviews,
		CriticalIssues:     count.CriticalIssues,
		TotalNotifications: count.TotalNotifications,
	})
}

// GetReview returns a single review with the caller's bookmark state.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	detail, err := h.reviews.GetReview(r.Context(), clerkID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ReviewDetailResponse{
		ReviewResponse: toReviewResponse(detail.Review),
		IsSaved:        detail.IsSaved,
		SavedNotes:     detail.SavedNotes,
		SavedNotesHTML: renderNotes(detail.SavedNotes),
	})
}

// DeleteReview removes one of the caller's reviews.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.reviews.DeleteReview(r.Context(), clerkID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// RepoData returns the latest review for ?repo=, or null.
func (h *Handler) RepoData(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	snapshot, err := h.reviews.GetRepoData(r.Context(), clerkID, r.URL.Query().Get("repo"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if snapshot == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	writeJSON(w, http.StatusOK, RepoDataResponse{
		ReviewResponse: toReviewResponse(snapshot.Review),
		IsNew:          snapshot.IsNew,
	})
}

// queryInt parses an optional integer query parameter. Absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}
