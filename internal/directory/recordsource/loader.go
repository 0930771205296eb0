// internal/directory/recordsource/loader.go
package recordsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"visa-directory/internal/common/logger"
	"visa-directory/internal/common/metrics"
	"visa-directory/internal/models"
)

// DefaultLoadTimeout bounds a chain pass when WithLoadTimeout is not given.
const DefaultLoadTimeout = 30 * time.Second

// RecordLoader is satisfied by Chain.
type RecordLoader interface {
	Load(ctx context.Context) ([]models.Business, error)
}

// Loader caches the accepted record set in process and, when a Redis client is given,
// in a shared snapshot key. Concurrent cold loads share a single chain pass.
type Loader struct {
	chain  RecordLoader
	redis  redis.Cmdable
	key    string
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time

	group       singleflight.Group
	loadTimeout time.Duration

	mu       sync.RWMutex
	records  []models.Business
	loadedAt time.Time
}

type LoaderOption func(*Loader)

// WithRedis enables the shared snapshot under key.
func WithRedis(client redis.Cmdable, key string) LoaderOption {
	return func(l *Loader) {
		l.redis = client
		l.key = key
	}
}

// WithTTL bounds how long a snapshot is served. Zero keeps it until Invalidate.
func WithTTL(ttl time.Duration) LoaderOption {
	return func(l *Loader) { l.ttl = ttl }
}

// WithLoadTimeout bounds one shared pass over the chain. It applies regardless of the
// deadline of the request that started the pass. Non-positive values keep the default.
func WithLoadTimeout(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		if timeout > 0 {
			l.loadTimeout = timeout
		}
	}
}

func withClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

func NewLoader(chain RecordLoader, log logger.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		chain:       chain,
		logger:      logger.ForComponent(log, "loader"),
		now:         time.Now,
		loadTimeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Records returns the current snapshot. The returned slice is shared and must not be
// modified. ErrNoDataFound is returned with an empty slice.
func (l *Loader) Records(ctx context.Context) ([]models.Business, error) {
	if records, ok := l.cached(); ok {
		metrics.RecordLoads.WithLabelValues("memory").Inc()
		return records, nil
	}

	// The pass is shared, so it must not die with whichever caller started it.
	ch := l.group.DoChan("records", func() (interface{}, error) {
		if records, ok := l.cached(); ok {
			return records, nil
		}
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.loadTimeout)
		defer cancel()
		return l.load(flightCtx)
	})

	select {
	case <-ctx.Done():
		return []models.Business{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return []models.Business{}, res.Err
		}
		return res.Val.([]models.Business), nil
	}
}

func (l *Loader) cached() ([]models.Business, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.records == nil {
		return nil, false
	}
	if l.ttl > 0 && l.now().Sub(l.loadedAt) >= l.ttl {
		return nil, false
	}
	return l.records, true
}

func (l *Loader) load(ctx context.Context) ([]models.Business, error) {
	if records, ok := l.fromRedis(ctx); ok {
		metrics.RecordLoads.WithLabelValues("redis").Inc()
		l.store(records)
		return records, nil
	}

	records, err := l.chain.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoDataFound) {
			metrics.RecordLoads.WithLabelValues("empty").Inc()
			l.logger.Warn("no data source accepted, serving empty directory", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, err
	}

	metrics.RecordLoads.WithLabelValues("chain").Inc()
	l.store(records)
	l.toRedis(ctx, records)
	return records, nil
}

func (l *Loader) store(records []models.Business) {
	l.mu.Lock()
	l.records = records
	l.loadedAt = l.now()
	l.mu.Unlock()
	metrics.RecordsLoaded.Set(float64(len(records)))
}

func (l *Loader) fromRedis(ctx context.Context) ([]models.Business, bool) {
	if l.redis == nil {
		return nil, false
	}
	raw, err := l.redis.Get(ctx, l.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn("snapshot cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var records []models.Business
	if err := json.Unmarshal(raw, &records); err != nil || len(records) == 0 {
		l.logger.Warn("snapshot cache entry unusable", map[string]interface{}{"key": l.key})
		return nil, false
	}
	return records, true
}

func (l *Loader) toRedis(ctx context.Context, records []models.Business) {
	if l.redis == nil {
		return
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := l.redis.Set(ctx, l.key, raw, l.ttl).Err(); err != nil {
		l.logger.Warn("snapshot cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Invalidate drops the in-process snapshot and the shared Redis key so the next
// Records call walks the chain again.
func (l *Loader) Invalidate(ctx context.Context) error {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()

	if l.redis == nil {
		return nil
	}
	if err := l.redis.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("%w: invalidate snapshot %s: %v", ErrCacheUnavailable, l.key, err)
	}
	return nil
}
