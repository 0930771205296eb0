// internal/directory/reviews/service.go
package reviews

import (
	"context"
	"fmt"
	"time"

	"visa-directory/internal/common/logger"
	"visa-directory/internal/common/metrics"
	"visa-directory/internal/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxTargetCount caps the declared review count a caller may ask to synthesize.
	MaxTargetCount = 100000

	SourceStore       = "store"
	SourceSynthesized = "synthesized"
)

// Page is one window of a business's review list.
type Page struct {
	BusinessID string          `json:"businessId"`
	Reviews    []models.Review `json:"reviews"`
	Total      int             `json:"total"`
	Offset     int             `json:"offset"`
	Limit      int             `json:"limit"`
	Source     string          `json:"source"`
}

// Service prefers authoritative reviews and synthesizes when the store has none for a
// business or cannot be reached.
type Service struct {
	store  Store
	synth  *Synthesizer
	logger logger.Logger
	now    func() time.Time
}

// NewService accepts a nil store, in which case every list is synthesized.
func NewService(synth *Synthesizer, store Store, log logger.Logger) *Service {
	if synth == nil {
		synth = defaultSynthesizer
	}
	return &Service{
		store:  store,
		synth:  synth,
		logger: logger.ForComponent(log, "reviews"),
		now:    time.Now,
	}
}

func (s *Service) GetReviews(ctx context.Context, b models.Business, offset, limit int) (*Page, error) {
	offset, limit = ClampWindow(offset, limit)

	if s.store != nil {
		page, err := s.fromStore(ctx, b, offset, limit)
		if err == nil && page != nil {
			return page, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("review store unavailable, synthesizing", map[string]interface{}{
				"businessId": b.ID,
				"error":      err,
			})
		}
	}

	total := s.synth.TargetFor(b)
	synthesized := s.synth.Window(b.Name, total, offset, limit)
	metrics.ReviewsSynthesized.Add(float64(len(synthesized)))

	return &Page{
		BusinessID: b.ID,
		Reviews:    synthesized,
		Total:      total,
		Offset:     offset,
		Limit:      limit,
		Source:     SourceSynthesized,
	}, nil
}

// fromStore returns nil, nil when the business has no authoritative reviews.
func (s *Service) fromStore(ctx context.Context, b models.Business, offset, limit int) (*Page, error) {
	total, err := s.store.Count(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	rows, err := s.store.List(ctx, b.ID, offset, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]models.Review, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Review{
			ID:          r.ID,
			AuthorName:  r.AuthorName,
			Rating:      r.Rating,
			Text:        r.Body,
			RelativeAge: RelativeAge(now, r.CreatedAt),
			AvatarRef:   r.AvatarRef,
		})
	}

	return &Page{
		BusinessID: b.ID,
		Reviews:    out,
		Total:      total,
		Offset:     offset,
		Limit:      limit,
		Source:     SourceStore,
	}, nil
}

// ClampWindow bounds a requested page: a negative offset becomes 0 and the limit falls in
// 1..MaxLimit, with DefaultLimit standing in for a missing one.
func ClampWindow(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return offset, limit
}

// RelativeAge renders the distance between now and t the way synthetic labels read.
func RelativeAge(now, t time.Time) string {
	d := now.Sub(t)
	if d < 24*time.Hour {
		return "today"
	}
	days := int(d.Hours() / 24)
	switch {
	case days < 7:
		return plural(days, "day")
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
