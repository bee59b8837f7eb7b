// Package httphandler is the HTTP driving adapter that serves the JSON API.
package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/reviewdash/internal/application"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the REST API on top of the application services.
type Handler struct {
	users         *application.UserService
	reviews       *application.ReviewService
	saved         *application.SavedReviewService
	dashboard     *application.DashboardService
	installations *application.InstallationService
	store         Pinger
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. store may be
// nil, in which case the health check does not probe storage.
func NewHandler(
	users *application.UserService,
	reviews *application.ReviewService,
	saved *application.SavedReviewService,
	dashboard *application.DashboardService,
	installations *application.InstallationService,
	store Pinger,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		users:         users,
		reviews:       reviews,
		saved:         saved,
		dashboard:     dashboard,
		installations: installations,
		store:         store,
		logger:        logger,
	}
}

// NewRouter creates an http.Handler with all routes registered. When registry
// is non-nil, request metrics are recorded into it and served on /metrics.
func NewRouter(h *Handler, logger *slog.Logger, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(loggingMiddleware(logger))
	if registry != nil {
		r.Use(metricsMiddleware(newHTTPMetrics(registry)))
	}
	// Recovery innermost so panics are caught before logging.
	r.Use(recoveryMiddleware(logger))
	r.Use(bodyLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/users", h.SaveUser)

		r.Post("/reviews", h.SaveReview)
		r.Get("/reviews", h.ListReviews)
		r.Get("/reviews/recent", h.RecentReviews)
		r.Get("/reviews/stats", h.ReviewStats)
		r.Get("/reviews/{id}", h.GetReview)
		r.Delete("/reviews/{id}", h.DeleteReview)
		r.Get("/repo-data", h.RepoData)
		r.Get("/notifications/count", h.NotificationCount)

		r.Post("/saved-reviews", h.SaveForLater)
		r.Get("/saved-reviews", h.ListSavedReviews)
		r.Delete("/saved-reviews/{reviewId}", h.RemoveSavedReview)

		r.Post("/installations", h.SaveInstallation)
		r.Get("/installations", h.ListInstallations)
		r.Delete("/installations/{installationId}", h.RemoveInstallation)
		r.Get("/installations/{installationId}/repositories", h.InstallationRepositories)
	})

	if registry != nil {
		r.Handle("/metrics", metricsHandler(registry))
	}

	return r
}

// Health reports service liveness and, when configured, storage reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "unavailable",
				Time:   time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// SaveUser records the caller on sign-in.
func (h *Handler) SaveUser(w http.ResponseWriter, r *http.Request) {
	clerkID, err := callerID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req SaveUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := h.users.SaveUser(r.Context(), clerkID, req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}
