package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshmart/review-service/internal/service"
	"github.com/freshmart/review-service/pkg/health"
	"github.com/freshmart/review-service/pkg/middleware"
)

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("review"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	reviewHandler := NewReviewHandler(reviewService, logger)
	moderationHandler := NewModerationHandler(reviewService, logger)

	// Public storefront endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(CORS)
		r.Use(ContentTypeJSON)

		r.Route("/products/{productID}/reviews", func(r chi.Router) {
			// Product listings are cacheable by the CDN for a short window.
			r.With(middleware.CacheControl(60)).Get("/", reviewHandler.ListProductReviews)
			r.With(middleware.CacheControl(60)).Get("/stats", reviewHandler.GetProductStats)
			r.Get("/eligibility", reviewHandler.CheckEligibility)
			r.Post("/", reviewHandler.SubmitReview)
		})

		r.Route("/reviews/{id}", func(r chi.Router) {
			r.Get("/", reviewHandler.GetReview)
			r.Post("/helpfulness", reviewHandler.VoteHelpfulness)
		})

		// Admin moderation endpoints.
		r.Route("/admin/reviews", func(r chi.Router) {
			r.Get("/pending", moderationHandler.ListPending)
			r.Get("/stats", moderationHandler.GetGlobalStats)
			r.Post("/bulk", moderationHandler.BulkModerate)
			r.Put("/{id}/status", moderationHandler.UpdateStatus)
			r.Delete("/{id}", moderationHandler.DeleteReview)
		})
	})

	return r
}
