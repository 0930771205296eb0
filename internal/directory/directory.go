// Package directory composes the record source, category matcher, search engine,
// pagination, profile resolver and review synthesizer into the operations the HTTP
// server, the job workers and the CLI expose.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"visa-directory/internal/common/logger"
	"visa-directory/internal/common/metrics"
	"visa-directory/internal/common/observability"
	"visa-directory/internal/directory/category"
	"visa-directory/internal/directory/complaints"
	"visa-directory/internal/directory/pagination"
	"visa-directory/internal/directory/profile"
	"visa-directory/internal/directory/recordsource"
	"visa-directory/internal/directory/reviews"
	"visa-directory/internal/directory/search"
	"visa-directory/internal/models"
)

var (
	ErrUnknownBucket      = errors.New("UNKNOWN_BUCKET")
	ErrComplaintsDisabled = errors.New("COMPLAINTS_DISABLED")
)

// Records is the snapshot provider, satisfied by recordsource.Loader.
type Records interface {
	Records(ctx context.Context) ([]models.Business, error)
	Invalidate(ctx context.Context) error
}

type Options struct {
	PageSize        int
	ReviewFloor     int
	Buckets         map[string][]string
	BasePath        string
	FallbackToFirst bool
}

// Dependencies are optional collaborators; nil members disable the feature they back.
type Dependencies struct {
	ReviewStore       reviews.Store
	ComplaintStore    complaints.Store
	ComplaintNotifier complaints.Notifier
	Observability     *observability.Observability
}

// Page is one "load more" view of a query result.
type Page struct {
	Items     []models.Business `json:"items"`
	Total     int               `json:"total"`
	PageSize  int               `json:"pageSize"`
	PageCount int               `json:"pageCount"`
	HasMore   bool              `json:"hasMore"`
	Empty     bool              `json:"empty"`
	Query     models.Query      `json:"query"`
}

type Directory struct {
	records    Records
	reviews    *reviews.Service
	complaints *complaints.Service
	obs        *observability.Observability
	logger     logger.Logger
	opts       Options

	mu       sync.Mutex
	resolver *profile.Resolver
	indexed  []models.Business
}

func New(records Records, opts Options, deps Dependencies, log logger.Logger) *Directory {
	if opts.PageSize <= 0 {
		opts.PageSize = pagination.DefaultPageSize
	}
	if opts.Buckets == nil {
		opts.Buckets = category.CloneBuckets(category.DefaultBuckets)
	}
	if opts.BasePath == "" {
		opts.BasePath = profile.DefaultBasePath
	}
	if deps.Observability == nil {
		deps.Observability = observability.Noop()
	}

	d := &Directory{
		records: records,
		obs:     deps.Observability,
		logger:  logger.ForComponent(log, "directory"),
		opts:    opts,
	}
	d.reviews = reviews.NewService(reviews.NewSynthesizer(opts.ReviewFloor), deps.ReviewStore, log)
	if deps.ComplaintStore != nil {
		d.complaints = complaints.NewService(deps.ComplaintStore, d, deps.ComplaintNotifier, log)
	}
	return d
}

func (d *Directory) PageSize() int { return d.opts.PageSize }

// Buckets returns a copy of the configured category buckets.
func (d *Directory) Buckets() map[string][]string {
	return category.CloneBuckets(d.opts.Buckets)
}

// snapshot treats NoDataFound as an empty directory.
func (d *Directory) snapshot(ctx context.Context) ([]models.Business, error) {
	records, err := d.records.Records(ctx)
	if err != nil {
		if errors.Is(err, recordsource.ErrNoDataFound) {
			return []models.Business{}, nil
		}
		return nil, err
	}
	return records, nil
}

// observe opens a span and returns the func that closes it and records the outcome.
func (d *Directory) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := d.obs.StartSpan(ctx, "directory."+op, attrs...)
	return ctx, func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		d.obs.RecordOperation(ctx, op, status, time.Since(start))
		span.End()
	}
}

// Search filters and sorts the snapshot and reveals pageCount pages of it.
func (d *Directory) Search(ctx context.Context, q models.Query, pageCount int) (page *Page, err error) {
	ctx, done := d.observe(ctx, "search",
		attribute.String("search.term", q.SearchTerm),
		attribute.String("search.category", q.CategoryFilter),
	)
	defer func() { done(err) }()

	if err := search.Validate(q); err != nil {
		return nil, err
	}
	q = search.Normalize(q)
	if pageCount < 1 {
		pageCount = 1
	}

	records, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	records = d.withReportCounts(ctx, records)

	results := search.Apply(records, q)
	metrics.Searches.Inc()

	return &Page{
		Items:     pagination.Visible(results, d.opts.PageSize, pageCount),
		Total:     len(results),
		PageSize:  d.opts.PageSize,
		PageCount: pageCount,
		HasMore:   pagination.HasMore(len(results), d.opts.PageSize, pageCount),
		Empty:     len(results) == 0,
		Query:     q,
	}, nil
}

// withReportCounts copies the snapshot and overlays complaint counts from the store.
func (d *Directory) withReportCounts(ctx context.Context, records []models.Business) []models.Business {
	if d.complaints == nil || len(records) == 0 {
		return records
	}
	counts, err := d.complaints.ReportCounts(ctx)
	if err != nil {
		d.logger.Warn("report counts unavailable", map[string]interface{}{"error": err})
		return records
	}
	if len(counts) == 0 {
		return records
	}

	enriched := make([]models.Business, len(records))
	copy(enriched, records)
	for i := range enriched {
		if n, ok := counts[enriched[i].ID]; ok {
			enriched[i].ReportCount = n
		}
	}
	return enriched
}

// Categories returns the size of every bucket.
func (d *Directory) Categories(ctx context.Context) (counts map[string]int, err error) {
	ctx, done := d.observe(ctx, "categories")
	defer func() { done(err) }()

	records, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return category.Counts(records, d.opts.Buckets), nil
}

// CategoryBusinesses lists one bucket's members in snapshot order.
func (d *Directory) CategoryBusinesses(ctx context.Context, bucket string) (members []models.Business, err error) {
	ctx, done := d.observe(ctx, "category", attribute.String("category.bucket", bucket))
	defer func() { done(err) }()

	keywords, ok := d.opts.Buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	records, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	members = make([]models.Business, 0)
	for _, b := range records {
		if category.Matches(b, keywords) {
			members = append(members, b)
		}
	}
	return members, nil
}

// Classify groups the whole snapshot by bucket.
func (d *Directory) Classify(ctx context.Context) (map[string][]models.Business, error) {
	records, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return category.ClassifyAll(records, d.opts.Buckets), nil
}

// ResolveProfile maps an id or slug pair to one business and its canonical URL.
func (d *Directory) ResolveProfile(ctx context.Context, id profile.Identifier) (res *profile.Resolution, err error) {
	ctx, done := d.observe(ctx, "resolve", attribute.String("profile.identifier", id.String()))
	defer func() { done(err) }()

	r, err := d.resolverFor(ctx)
	if err != nil {
		return nil, err
	}

	res, err = r.Resolve(id)
	if err != nil {
		metrics.Resolutions.WithLabelValues("not_found").Inc()
		return nil, err
	}
	metrics.Resolutions.WithLabelValues(string(res.Strategy)).Inc()
	res.Business = d.withReportCounts(ctx, []models.Business{res.Business})[0]
	return res, nil
}

// resolverFor rebuilds the resolver index only when the snapshot changes.
func (d *Directory) resolverFor(ctx context.Context) (*profile.Resolver, error) {
	records, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.resolver != nil && sameSnapshot(d.indexed, records) {
		return d.resolver, nil
	}
	d.resolver = profile.NewResolver(records, profile.Options{
		BasePath:        d.opts.BasePath,
		FallbackToFirst: d.opts.FallbackToFirst,
	})
	d.indexed = records
	return d.resolver, nil
}

func sameSnapshot(a, b []models.Business) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// CanonicalURL is the single public URL of b within the current snapshot.
func (d *Directory) CanonicalURL(ctx context.Context, b models.Business) (string, error) {
	r, err := d.resolverFor(ctx)
	if err != nil {
		return "", err
	}
	return r.CanonicalURL(b), nil
}

// GetReviews returns authoritative reviews when the store has any, otherwise synthesized ones.
func (d *Directory) GetReviews(ctx context.Context, b models.Business, offset, limit int) (page *reviews.Page, err error) {
	ctx, done := d.observe(ctx, "reviews", attribute.String("business.id", b.ID))
	defer func() { done(err) }()

	return d.reviews.GetReviews(ctx, b, offset, limit)
}

// FileComplaint stores a complaint against a business in the current snapshot.
func (d *Directory) FileComplaint(ctx context.Context, in complaints.Input) (c *models.Complaint, err error) {
	ctx, done := d.observe(ctx, "complaint", attribute.String("business.id", in.BusinessID))
	defer func() { done(err) }()

	if d.complaints == nil {
		return nil, ErrComplaintsDisabled
	}
	return d.complaints.File(ctx, in)
}

// BusinessExists reports whether id is in the current snapshot.
func (d *Directory) BusinessExists(ctx context.Context, id string) (bool, error) {
	records, err := d.snapshot(ctx)
	if err != nil {
		return false, err
	}
	for _, b := range records {
		if b.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Refresh drops the cached snapshot and loads a new one. It returns the new record count.
func (d *Directory) Refresh(ctx context.Context) (n int, err error) {
	ctx, done := d.observe(ctx, "refresh")
	defer func() { done(err) }()

	// A reload after a failed invalidation could serve the stale shared snapshot.
	if err := d.records.Invalidate(ctx); err != nil {
		return 0, err
	}
	records, err := d.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	d.logger.Info("directory refreshed", map[string]interface{}{"records": len(records)})
	return len(records), nil
}
