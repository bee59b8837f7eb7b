package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SaveForLater bookmarks one of the caller's reviews.
func (h *Handler) SaveForLater(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req SaveForLaterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := h.saved.SaveForLater(r.Context(), clerkID, req.ReviewID, req.Notes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

// ListSavedReviews returns the caller's bookmarks with their reviews.
func (h *Handler) ListSavedReviews(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	saved, err := h.saved.GetSavedReviews(r.Context(), clerkID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]SavedReviewResponse, 0, len(saved))
	for _, s := range saved {
		resp = append(resp, toSavedReviewResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// RemoveSavedReview deletes the caller's bookmark for a review.
func (h *Handler) RemoveSavedReview(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.saved.RemoveSavedReview(r.Context(), clerkID, chi.URLParam(r, "reviewId")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
