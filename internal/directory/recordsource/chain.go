// internal/directory/recordsource/chain.go
package recordsource

import (
	"context"
	"errors"
	"fmt"

	apperrors "visa-directory/internal/common/errors"
	"visa-directory/internal/common/logger"
	"visa-directory/internal/common/metrics"
	"visa-directory/internal/models"
)

var (
	ErrNoDataFound    = errors.New("NO_DATA_FOUND")
	ErrSourceRejected = errors.New("SOURCE_REJECTED")

	// ErrCacheUnavailable means the shared snapshot could not be cleared.
	ErrCacheUnavailable = errors.New("CACHE_UNAVAILABLE")
)

// Attempt records what happened to one source during a pass over the chain.
type Attempt struct {
	Source   string `json:"source"`
	Accepted bool   `json:"accepted"`
	Records  int    `json:"records"`
	Dropped  int    `json:"dropped"`
	Reason   string `json:"reason,omitempty"`
}

// Chain walks its sources in priority order and returns the first accepted collection.
// Results are never merged across sources and nothing is retried.
type Chain struct {
	sources []Source
	logger  logger.Logger
}

func NewChain(log logger.Logger, sources ...Source) *Chain {
	return &Chain{
		sources: sources,
		logger:  logger.ForComponent(log, "recordsource"),
	}
}

// Len returns the number of configured sources.
func (c *Chain) Len() int { return len(c.sources) }

// Load returns the first accepted record set or ErrNoDataFound.
func (c *Chain) Load(ctx context.Context) ([]models.Business, error) {
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, attempt := c.try(ctx, src)
		if attempt.Accepted {
			return records, nil
		}
	}
	stdErr := apperrors.NewNoDataFoundError(len(c.sources))
	c.logger.Error(stdErr.Message, map[string]interface{}{
		"errorCode":        string(stdErr.Code),
		"sourcesAttempted": len(c.sources),
	})
	return nil, fmt.Errorf("%w: %d sources attempted", ErrNoDataFound, len(c.sources))
}

// Survey tries every source without stopping at the first accepted one. It reports which
// source Load would pick, for operators checking the chain.
func (c *Chain) Survey(ctx context.Context) []Attempt {
	attempts := make([]Attempt, 0, len(c.sources))
	for _, src := range c.sources {
		_, attempt := c.try(ctx, src)
		attempts = append(attempts, attempt)
	}
	return attempts
}

func (c *Chain) try(ctx context.Context, src Source) ([]models.Business, Attempt) {
	attempt := Attempt{Source: src.Name()}

	payload, err := src.Fetch(ctx)
	if err != nil {
		c.reject(&attempt, err, "error")
		return nil, attempt
	}

	records, dropped, err := Parse(payload)
	attempt.Dropped = len(dropped)
	for _, d := range dropped {
		c.logger.Warn("record dropped", map[string]interface{}{
			"source": src.Name(),
			"index":  d.Index,
			"reason": d.Reason,
		})
	}
	if err != nil {
		c.reject(&attempt, err, "rejected")
		return nil, attempt
	}

	attempt.Accepted = true
	attempt.Records = len(records)
	metrics.SourceAttempts.WithLabelValues(src.Name(), "accepted").Inc()
	c.logger.Info("source accepted", map[string]interface{}{
		"source":  src.Name(),
		"records": len(records),
		"dropped": len(dropped),
	})
	return records, attempt
}

func (c *Chain) reject(attempt *Attempt, err error, outcome string) {
	stdErr := apperrors.NewSourceRejectedError(attempt.Source, err.Error())
	attempt.Reason = stdErr.Details
	metrics.SourceAttempts.WithLabelValues(attempt.Source, outcome).Inc()
	c.logger.Warn(stdErr.Message, map[string]interface{}{
		"source":        attempt.Source,
		"outcome":       outcome,
		"errorCode":     string(stdErr.Code),
		"errorCategory": apperrors.GetErrorCategory(stdErr.Code),
		"reason":        stdErr.Details,
	})
}
