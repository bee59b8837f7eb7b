package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
)

const (
	// maxBodyBytes caps JSON request bodies. Review payloads with many issues
	// are the largest thing we accept.
	maxBodyBytes int64 = 2 << 20

	// identityHeader carries the identity provider's subject id, set by the
	// authenticating proxy in front of this service.
	identityHeader = "X-Clerk-User-Id"
)

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error("panic recovered",
						"panic", v,
						"path", r.URL.Path,
						"request_id", chimiddleware.GetReqID(r.Context()),
					)
					writeJSON(w, http.StatusInternalServerError, ErrorResponse{
						Error:   "internal",
						Message: "internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// bodyLimitMiddleware rejects oversized API request bodies up front and caps
// the rest while they are read.
func bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/api/v1/") {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > maxBodyBytes {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "validation",
				Message: "request body too large",
			})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// callerID returns the authenticated caller's identity-provider id.
func callerID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(identityHeader))
	if id == "" {
		return "", apperror.Unauthenticated("missing " + identityHeader + " header")
	}
	return id, nil
}

// isBodyTooLarge reports whether err came from http.MaxBytesReader.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
