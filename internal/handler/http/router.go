package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vinylen2/ellabib-server/internal/service"
	"github.com/vinylen2/ellabib-server/pkg/health"
	"github.com/vinylen2/ellabib-server/pkg/middleware"
)

// NewRouter creates a chi router with all server routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	rollupService *service.RollupService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("ellabib"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	reviewHandler := NewReviewHandler(reviewService, logger)
	rollupHandler := NewRollupHandler(rollupService, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", reviewHandler.SubmitReview)
		r.Get("/inactive", reviewHandler.ListInactiveReviews)
		r.Get("/count", reviewHandler.CountActiveReviews)

		// Batch activation must come before /{id} to avoid route conflict.
		r.Post("/activate", reviewHandler.ActivateReviews)

		r.Post("/{id}/activate", reviewHandler.ActivateReview)
		r.Delete("/{id}", reviewHandler.DeleteReview)
		r.Patch("/{id}/text", reviewHandler.EditReviewText)
		r.Patch("/{id}/rating", reviewHandler.EditReviewRating)
		r.Patch("/{id}/audio", reviewHandler.EditReviewAudio)
	})

	r.Get("/api/v1/books/{id}/reviews", reviewHandler.ListBookReviews)

	r.Get("/api/v1/activity/{scopeType}/{id}", rollupHandler.GetScopeTotals)
	r.Get("/api/v1/leaderboard", rollupHandler.GetLeaderboard)

	return r
}
