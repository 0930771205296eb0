// internal/transport/http/handlers.go
package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"visa-directory/internal/common/logger"
	"visa-directory/internal/directory"
	"visa-directory/internal/directory/category"
	"visa-directory/internal/directory/complaints"
	"visa-directory/internal/directory/profile"
	"visa-directory/internal/directory/reviews"
	"visa-directory/internal/models"
)

const maxComplaintBody = 64 << 10

// Service is the part of the directory the HTTP surface needs.
type Service interface {
	Search(ctx context.Context, q models.Query, pageCount int) (*directory.Page, error)
	Categories(ctx context.Context) (map[string]int, error)
	CategoryBusinesses(ctx context.Context, bucket string) ([]models.Business, error)
	ResolveProfile(ctx context.Context, id profile.Identifier) (*profile.Resolution, error)
	GetReviews(ctx context.Context, b models.Business, offset, limit int) (*reviews.Page, error)
	FileComplaint(ctx context.Context, in complaints.Input) (*models.Complaint, error)
	Refresh(ctx context.Context) (int, error)
	Buckets() map[string][]string
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	BasePath       string
	BrowseURL      string
	RequestTimeout time.Duration
	Checks         map[string]ReadinessCheck
}

type Handler struct {
	service        Service
	logger         logger.Logger
	basePath       string
	browseURL      string
	requestTimeout time.Duration
	checks         map[string]ReadinessCheck
}

func NewHandler(service Service, opts Options, log logger.Logger) *Handler {
	if opts.BasePath == "" {
		opts.BasePath = profile.DefaultBasePath
	}
	if opts.BrowseURL == "" {
		opts.BrowseURL = "/api/businesses"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Handler{
		service:        service,
		logger:         logger.ForComponent(log, "http"),
		basePath:       "/" + strings.Trim(opts.BasePath, "/"),
		browseURL:      opts.BrowseURL,
		requestTimeout: opts.RequestTimeout,
		checks:         opts.Checks,
	}
}

// ==========================
// Directory API
// ==========================

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, pageCount, err := parseSearch(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.service.Search(r.Context(), q, pageCount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func parseSearch(values url.Values) (models.Query, int, error) {
	q := models.Query{
		SearchTerm:     values.Get("search"),
		CategoryFilter: values.Get("category"),
		SortBy:         models.SortField(values.Get("sortBy")),
		SortOrder:      models.SortOrder(values.Get("sortOrder")),
	}
	if raw := values.Get("minRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, 0, invalidParam("minRating", raw)
		}
		q.MinRating = v
	}

	pageCount := 1
	if raw := values.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return q, 0, invalidParam("page", raw)
		}
		pageCount = v
	}
	return q, pageCount, nil
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": counts,
	})
}

func (h *Handler) handleCategory(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	members, err := h.service.CategoryBusinesses(r.Context(), bucket)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bucket": bucket,
		"items":  members,
		"total":  len(members),
	})
}

func (h *Handler) handleFileComplaint(w http.ResponseWriter, r *http.Request) {
	var in complaints.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxComplaintBody))
	if err := dec.Decode(&in); err != nil {
		h.writeError(w, r, &complaints.InvalidError{Fields: bodyError(err)})
		return
	}

	c, err := h.service.FileComplaint(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Refresh(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records":     n,
		"refreshedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// ==========================
// Profiles
// ==========================

// handleBusinessByID never renders; a found business always redirects to its canonical URL.
func (h *Handler) handleBusinessByID(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ResolveProfile(r.Context(), profile.Identifier{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, res.CanonicalURL, http.StatusMovedPermanently)
}

type profileResponse struct {
	Business     models.Business `json:"business"`
	CanonicalURL string          `json:"canonicalUrl"`
	Categories   []string        `json:"categories"`
	ReviewsURL   string          `json:"reviewsUrl"`
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolveSlug(w, r)
	if !ok {
		return
	}
	if res.Redirect {
		http.Redirect(w, r, res.CanonicalURL, http.StatusMovedPermanently)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Business:     res.Business,
		CanonicalURL: res.CanonicalURL,
		Categories:   category.Tags(res.Business, h.service.Buckets()),
		ReviewsURL:   res.CanonicalURL + "/reviews",
	})
}

func (h *Handler) handleReviews(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolveSlug(w, r)
	if !ok {
		return
	}
	if res.Redirect {
		target := res.CanonicalURL + "/reviews"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	offset, err := intParam(r.URL.Query(), "offset", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := intParam(r.URL.Query(), "limit", reviews.DefaultLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.service.GetReviews(r.Context(), res.Business, offset, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) resolveSlug(w http.ResponseWriter, r *http.Request) (*profile.Resolution, bool) {
	id := profile.Identifier{
		LocationSlug: chi.URLParam(r, "location"),
		NameSlug:     chi.URLParam(r, "name"),
	}
	res, err := h.service.ResolveProfile(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return res, true
}

func intParam(values url.Values, name string, def int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, invalidParam(name, raw)
	}
	return v, nil
}

// ==========================
// Health
// ==========================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not_ready",
			"failures": failures,
			"time":     time.Now().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
