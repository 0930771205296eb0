// internal/transport/http/router.go
package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visa-directory/internal/common/metrics"
)

// NewRouter mounts the directory API, the profile routes and the operational endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestDuration)

	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(h.requestTimeout))
		api.Get("/businesses", h.handleSearch)
		api.Get("/categories", h.handleCategories)
		api.Get("/categories/{bucket}", h.handleCategory)
		api.Post("/complaints", h.handleFileComplaint)
		api.Post("/directory/refresh", h.handleRefresh)
	})

	r.Get("/business/{id}", h.handleBusinessByID)
	r.Route(h.basePath, func(p chi.Router) {
		p.Get("/{location}/{name}", h.handleProfile)
		p.Get("/{location}/{name}/reviews", h.handleReviews)
	})

	return r
}

// requestDuration observes latency by route pattern so slugs do not explode cardinality.
func requestDuration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
