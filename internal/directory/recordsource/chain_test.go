package recordsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-directory/internal/common/config"
	commonhttp "visa-directory/internal/common/http"
	"visa-directory/internal/common/logger"
)

const threeBusinesses = `[
	{"id":"1","name":"Atlas Migration","address":"Dubai Marina, Dubai","category":"Visa Consultant","rating":4.5},
	{"id":"2","name":"Crescent Permits","address":"Deira, Dubai","category":"Work Permit Agency","rating":3.9},
	{"id":"3","name":"Harbor Study Abroad","address":"Abu Dhabi","category":"Student Visa"}
]`

// ==========================
// Test doubles
// ==========================

type fakeObjectStore struct {
	body        string
	contentType string
	err         error
	calls       int
}

func (f *fakeObjectStore) GetObject(_ context.Context, bucket, key string, _ int64) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte(f.body), f.contentType, nil
}

type countingSource struct {
	Source
	calls int
}

func (c *countingSource) Fetch(ctx context.Context) (*Payload, error) {
	c.calls++
	return c.Source.Fetch(ctx)
}

func directoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>Maintenance</body></html>")
	})
	mux.HandleFunc("/valid", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, threeBusinesses)
	})
	mux.HandleFunc("/wrapped", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"businesses": %s}`, threeBusinesses)
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"businesses": []}`)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/businesses.json"
	srv.Close()
	return url
}

// ==========================
// Chain.Load
// ==========================

func TestChain_Load_SkipsBadURLAndHTML(t *testing.T) {
	srv := directoryServer(t)
	client := commonhttp.NewClient(2 * time.Second)

	bad := &countingSource{Source: NewHTTPSource("bad-url", deadURL(t), client)}
	html := &countingSource{Source: NewHTTPSource("html-page", srv.URL+"/html", client)}
	valid := &countingSource{Source: NewHTTPSource("valid", srv.URL+"/valid", client)}
	after := &countingSource{Source: NewHTTPSource("never", srv.URL+"/wrapped", client)}

	chain := NewChain(logger.NewTestLogger(t), bad, html, valid, after)
	records, err := chain.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Atlas Migration", records[0].Name)
	assert.Equal(t, "Crescent Permits", records[1].Name)
	assert.Equal(t, "Harbor Study Abroad", records[2].Name)

	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, html.calls)
	assert.Equal(t, 1, valid.calls)
	assert.Equal(t, 0, after.calls, "sources after the accepted one are abandoned")
}

func TestChain_Load_NoDataFound(t *testing.T) {
	srv := directoryServer(t)
	client := commonhttp.NewClient(2 * time.Second)

	chain := NewChain(logger.NewNoOpLogger(),
		NewHTTPSource("broken", srv.URL+"/broken", client),
		NewHTTPSource("empty", srv.URL+"/empty", client),
		NewHTTPSource("html", srv.URL+"/html", client),
	)

	records, err := chain.Load(context.Background())
	assert.Nil(t, records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDataFound))
}

func TestChain_Load_EmptyChain(t *testing.T) {
	_, err := NewChain(logger.NewNoOpLogger()).Load(context.Background())
	assert.True(t, errors.Is(err, ErrNoDataFound))
}

func TestChain_Load_CancelledContext(t *testing.T) {
	srv := directoryServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewChain(logger.NewNoOpLogger(), NewHTTPSource("valid", srv.URL+"/valid", commonhttp.NewClient(time.Second)))
	_, err := chain.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChain_Load_FallsBackToS3(t *testing.T) {
	srv := directoryServer(t)
	store := &fakeObjectStore{body: threeBusinesses, contentType: "application/json"}

	chain := NewChain(logger.NewNoOpLogger(),
		NewHTTPSource("primary", srv.URL+"/broken", commonhttp.NewClient(time.Second)),
		NewS3Source("snapshot", "directory-snapshots", "businesses.json", store),
	)

	records, err := chain.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1, store.calls)
}

func TestChain_Load_S3Failure(t *testing.T) {
	store := &fakeObjectStore{err: errors.New("NoSuchKey")}
	chain := NewChain(logger.NewNoOpLogger(), NewS3Source("snapshot", "b", "k", store))

	_, err := chain.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoDataFound)
}

func TestChain_Survey(t *testing.T) {
	srv := directoryServer(t)
	client := commonhttp.NewClient(2 * time.Second)

	chain := NewChain(logger.NewNoOpLogger(),
		NewHTTPSource("html", srv.URL+"/html", client),
		NewHTTPSource("valid", srv.URL+"/valid", client),
		NewHTTPSource("wrapped", srv.URL+"/wrapped", client),
	)

	attempts := chain.Survey(context.Background())
	require.Len(t, attempts, 3)
	assert.False(t, attempts[0].Accepted)
	assert.Contains(t, attempts[0].Reason, "markup")
	assert.True(t, attempts[1].Accepted)
	assert.Equal(t, 3, attempts[1].Records)
	assert.True(t, attempts[2].Accepted, "survey keeps going past the first accepted source")
}

// ==========================
// Elasticsearch source
// ==========================

func elasticsearchServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if !strings.Contains(r.URL.Path, "/_search") {
			fmt.Fprint(w, `{"version":{"number":"8.11.0"}}`)
			return
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestElasticsearchSource_Fetch(t *testing.T) {
	srv := elasticsearchServer(t, http.StatusOK, `{
		"hits": {"hits": [
			{"_id": "es-1", "_source": {"name": "Indexed Visa Hub", "address": "Sharjah"}},
			{"_id": "es-2", "_source": {"id": "custom-2", "name": "Second Office"}}
		]}
	}`)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	chain := NewChain(logger.NewNoOpLogger(), NewElasticsearchSource("index", "businesses", 0, client))
	records, err := chain.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "es-1", records[0].ID)
	assert.Equal(t, "custom-2", records[1].ID)
}

func TestElasticsearchSource_IndexMissing(t *testing.T) {
	srv := elasticsearchServer(t, http.StatusNotFound, `{"error":{"type":"index_not_found_exception"},"status":404}`)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	_, err = NewElasticsearchSource("index", "missing", 10, client).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceRejected)
}

// ==========================
// FromConfig
// ==========================

func TestFromConfig(t *testing.T) {
	deps := Dependencies{HTTP: commonhttp.NewClient(time.Second), S3: &fakeObjectStore{}}

	sources, err := FromConfig([]config.SourceDescriptor{
		{Name: "primary", Kind: "http", URL: "https://example.test/a.json"},
		{Name: "snapshot", Kind: "s3", Bucket: "b", Key: "k"},
	}, deps)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "primary", sources[0].Name())
	assert.Equal(t, "snapshot", sources[1].Name())

	_, err = FromConfig([]config.SourceDescriptor{{Name: "idx", Kind: "elasticsearch", Index: "i"}}, deps)
	assert.Error(t, err, "elasticsearch source without a client")

	_, err = FromConfig([]config.SourceDescriptor{{Name: "ftp", Kind: "ftp"}}, deps)
	assert.Error(t, err)
}
