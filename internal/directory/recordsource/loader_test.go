package recordsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-directory/internal/common/logger"
	"visa-directory/internal/models"
)

const snapshotKey = "directory:snapshot"

type fakeChain struct {
	records []models.Business
	err     error
	delay   time.Duration
	calls   int32
}

func (f *fakeChain) Load(ctx context.Context) ([]models.Business, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

func fixtureRecords() []models.Business {
	return []models.Business{
		{ID: "1", Name: "Atlas Migration", Rating: models.Float64(4.5)},
		{ID: "2", Name: "Crescent Permits"},
	}
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// ==========================
// In-process snapshot
// ==========================

func TestLoader_CachesInProcess(t *testing.T) {
	chain := &fakeChain{records: fixtureRecords()}
	loader := NewLoader(chain, logger.NewTestLogger(t))

	first, err := loader.Records(context.Background())
	require.NoError(t, err)
	second, err := loader.Records(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&chain.calls))
}

func TestLoader_ConcurrentColdLoadsShareOneFetch(t *testing.T) {
	chain := &fakeChain{records: fixtureRecords(), delay: 50 * time.Millisecond}
	loader := NewLoader(chain, logger.NewNoOpLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := loader.Records(context.Background())
			assert.NoError(t, err)
			assert.Len(t, records, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&chain.calls))
}

func TestLoader_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	chain := &fakeChain{records: fixtureRecords(), delay: 100 * time.Millisecond}
	loader := NewLoader(chain, logger.NewNoOpLogger())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := loader.Records(firstCtx)
		firstErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	secondDone := make(chan []models.Business, 1)
	go func() {
		records, err := loader.Records(context.Background())
		assert.NoError(t, err)
		secondDone <- records
	}()

	time.Sleep(20 * time.Millisecond)
	cancelFirst()

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.Len(t, <-secondDone, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&chain.calls))

	records, err := loader.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&chain.calls))
}

func TestLoader_LoadTimeoutBoundsSharedLoad(t *testing.T) {
	chain := &fakeChain{records: fixtureRecords(), delay: time.Second}
	loader := NewLoader(chain, logger.NewNoOpLogger(), WithLoadTimeout(20*time.Millisecond))

	records, err := loader.Records(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, records)
}

func TestLoader_NoDataFoundIsNotCached(t *testing.T) {
	chain := &fakeChain{err: fmt.Errorf("%w: 2 sources attempted", ErrNoDataFound)}
	loader := NewLoader(chain, logger.NewNoOpLogger())

	records, err := loader.Records(context.Background())
	assert.True(t, errors.Is(err, ErrNoDataFound))
	assert.NotNil(t, records)
	assert.Empty(t, records)

	chain.err = nil
	chain.records = fixtureRecords()
	records, err = loader.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&chain.calls))
}

func TestLoader_TTLExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	chain := &fakeChain{records: fixtureRecords()}
	loader := NewLoader(chain, logger.NewNoOpLogger(),
		WithTTL(time.Minute),
		withClock(func() time.Time { return now }),
	)

	_, err := loader.Records(context.Background())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, _ = loader.Records(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&chain.calls))

	now = now.Add(31 * time.Second)
	_, _ = loader.Records(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&chain.calls))
}

// ==========================
// Redis snapshot
// ==========================

func TestLoader_WritesAndReadsRedisSnapshot(t *testing.T) {
	mr, rdb := setupRedis(t)
	chain := &fakeChain{records: fixtureRecords()}

	writer := NewLoader(chain, logger.NewNoOpLogger(), WithRedis(rdb, snapshotKey), WithTTL(5*time.Minute))
	_, err := writer.Records(context.Background())
	require.NoError(t, err)

	require.True(t, mr.Exists(snapshotKey))
	assert.Equal(t, 5*time.Minute, mr.TTL(snapshotKey))

	// A second process starts cold and finds the shared snapshot.
	otherChain := &fakeChain{err: errors.New("should not be called")}
	reader := NewLoader(otherChain, logger.NewNoOpLogger(), WithRedis(rdb, snapshotKey))
	records, err := reader.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Atlas Migration", records[0].Name)
	require.NotNil(t, records[0].Rating)
	assert.Equal(t, 4.5, *records[0].Rating)
	assert.Nil(t, records[1].Rating)
	assert.Equal(t, int32(0), atomic.LoadInt32(&otherChain.calls))
}

func TestLoader_CorruptSnapshotFallsBackToChain(t *testing.T) {
	mr, rdb := setupRedis(t)
	require.NoError(t, mr.Set(snapshotKey, "{not json"))

	chain := &fakeChain{records: fixtureRecords()}
	loader := NewLoader(chain, logger.NewNoOpLogger(), WithRedis(rdb, snapshotKey))

	records, err := loader.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&chain.calls))
}

func TestLoader_Invalidate(t *testing.T) {
	mr, rdb := setupRedis(t)
	chain := &fakeChain{records: fixtureRecords()}
	loader := NewLoader(chain, logger.NewNoOpLogger(), WithRedis(rdb, snapshotKey))

	_, err := loader.Records(context.Background())
	require.NoError(t, err)
	require.True(t, mr.Exists(snapshotKey))

	require.NoError(t, loader.Invalidate(context.Background()))
	assert.False(t, mr.Exists(snapshotKey))

	chain.records = append(fixtureRecords(), models.Business{ID: "3", Name: "Harbor Study Abroad"})
	records, err := loader.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&chain.calls))
}

func TestLoader_RedisFailuresAreNotFatal(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	records := fixtureRecords()
	payload, err := json.Marshal(records)
	require.NoError(t, err)

	mock.ExpectGet(snapshotKey).SetErr(errors.New("connection refused"))
	mock.ExpectSet(snapshotKey, payload, time.Minute).SetErr(errors.New("connection refused"))

	loader := NewLoader(&fakeChain{records: records}, logger.NewNoOpLogger(),
		WithRedis(rdb, snapshotKey), WithTTL(time.Minute))

	got, err := loader.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoader_InvalidateReportsRedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectDel(snapshotKey).SetErr(errors.New("READONLY"))

	loader := NewLoader(&fakeChain{records: fixtureRecords()}, logger.NewNoOpLogger(), WithRedis(rdb, snapshotKey))
	err := loader.Invalidate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	assert.Contains(t, err.Error(), "READONLY")
	assert.NoError(t, mock.ExpectationsWereMet())
}
