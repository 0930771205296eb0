// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-directory/internal/app"
	"visa-directory/internal/common/config"
	"visa-directory/internal/common/logger"
	"visa-directory/internal/directory/complaints"
	"visa-directory/internal/directory/profile"
	"visa-directory/internal/models"
	httptransport "visa-directory/internal/transport/http"
	filecomplaint "visa-directory/internal/workers/complaints/file-complaint"
	resolveprofile "visa-directory/internal/workers/directory/resolve-profile"
	searchdirectory "visa-directory/internal/workers/directory/search-directory"
)

const directoryPayload = `{"businesses": [
  {"id": 1, "name": "Gulf Visa Partners", "address": "Al Barsha, Dubai", "category": "Visa Consultant", "rating": 3.2, "reviewCount": 40},
  {"id": 2, "name": "Atlas Migration", "address": "Corniche, Abu Dhabi", "category": "Immigration Lawyer", "rating": 4.9, "reviewCount": 210},
  {"id": 3, "name": "Acme Visa Co", "address": "Business Bay, Dubai", "category": "Work Visa Services", "rating": 4.8, "reviewCount": 75},
  {"id": "x-4", "name": "", "address": "dropped at the boundary"},
  {"id": 5, "name": "Marina Golden Visa", "address": "Dubai Marina, Dubai", "category": "Golden Visa", "rating": 4.1, "reviewCount": 12}
]}`

// ==========================
// 1. Environment
// ==========================

type journey struct {
	server      *httptest.Server
	client      *http.Client
	sourceCalls *int64
	redis       *miniredis.Miniredis
	app         *app.App
}

func startJourney(t *testing.T) *journey {
	var calls int64
	outage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream down</html>"))
	}))
	t.Cleanup(outage.Close)
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(directoryPayload))
	}))
	t.Cleanup(source.Close)

	mr := miniredis.RunT(t)

	cfg := &config.Config{
		App: config.AppConfig{Name: "visa-directory-e2e"},
		Directory: config.DirectoryConfig{
			PageSize:     2,
			ReviewFloor:  50,
			BasePath:     "/businesses",
			CacheKey:     "directory:snapshot",
			CacheTTL:     300,
			FetchTimeout: 2000,
			Sources: []config.SourceDescriptor{
				{Name: "outage", Kind: "http", URL: outage.URL},
				{Name: "primary", Kind: "http", URL: source.URL},
			},
		},
		Database: config.DatabaseConfig{
			Redis: config.RedisConfig{Address: mr.Addr()},
		},
	}

	log := logger.NewTestLogger(t)
	a, err := app.New(context.Background(), cfg, app.Options{ConnectAttempts: 1, ConnectDelay: time.Millisecond}, log)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	handler := httptransport.NewHandler(a.Directory, httptransport.Options{
		BasePath:       cfg.Directory.BasePath,
		RequestTimeout: 5 * time.Second,
		Checks:         a.Checks(),
	}, log)
	srv := httptest.NewServer(httptransport.NewRouter(handler))
	t.Cleanup(srv.Close)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &journey{server: srv, client: client, sourceCalls: &calls, redis: mr, app: a}
}

func (j *journey) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	resp, err := j.client.Get(j.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp, decode(t, resp)
}

func (j *journey) post(t *testing.T, path string, body interface{}) (*http.Response, map[string]interface{}) {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := j.client.Post(j.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ==========================
// 2. Visitor Journey
// ==========================

func TestVisitorJourney(t *testing.T) {
	j := startJourney(t)

	t.Log("🔍 Browsing Dubai businesses by rating...")
	resp, page := j.get(t, "/api/businesses?search=dubai&sortBy=rating&sortOrder=desc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), page["total"])
	items := page["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "3", items[0].(map[string]interface{})["id"])
	assert.Equal(t, "5", items[1].(map[string]interface{})["id"])
	assert.Equal(t, true, page["hasMore"])

	t.Log("📄 Loading more...")
	_, page = j.get(t, "/api/businesses?search=dubai&sortBy=rating&sortOrder=desc&page=2")
	assert.Len(t, page["items"].([]interface{}), 3)
	assert.Equal(t, false, page["hasMore"])

	t.Log("🔗 Following the id link...")
	resp, _ = j.get(t, "/business/3")
	require.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	canonical := resp.Header.Get("Location")
	assert.Equal(t, "/businesses/business-bay/acme-visa-co", canonical)

	t.Log("🏢 Rendering the canonical profile...")
	resp, profileBody := j.get(t, canonical)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, canonical, profileBody["canonicalUrl"])
	assert.Contains(t, profileBody["categories"], "work-visa")

	t.Log("⭐ Reading reviews...")
	resp, reviews := j.get(t, canonical+"/reviews?offset=70&limit=20")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(75), reviews["total"])
	assert.Len(t, reviews["reviews"].([]interface{}), 5)

	t.Log("🚫 Unknown profile...")
	resp, notFound := j.get(t, "/businesses/nowhere/nobody-at-all")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "PROFILE_NOT_FOUND", notFound["code"])
	assert.Equal(t, "/api/businesses", notFound["browseUrl"])

	t.Log("📚 Categories...")
	resp, categories := j.get(t, "/api/categories")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, categories)

	t.Log("📝 Complaints need a database...")
	resp, complaint := j.post(t, "/api/complaints", map[string]string{
		"businessId":    "3",
		"reporterName":  "Sara Khan",
		"reporterEmail": "sara@example.com",
		"subject":       "No response",
		"description":   "Paid in January and the application was never submitted.",
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotNil(t, complaint)

	// One chain pass served the whole journey and was shared through Redis.
	assert.Equal(t, int64(1), atomic.LoadInt64(j.sourceCalls))
	assert.True(t, j.redis.Exists("directory:snapshot"))
}

func TestRefreshReloadsChain(t *testing.T) {
	j := startJourney(t)

	_, _ = j.get(t, "/api/businesses")
	resp, body := j.post(t, "/api/directory/refresh", map[string]string{})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body)
	assert.Equal(t, int64(2), atomic.LoadInt64(j.sourceCalls))
}

// ==========================
// 3. Job Workers Against The Same Directory
// ==========================

func TestWorkersShareDirectory(t *testing.T) {
	j := startJourney(t)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	search := searchdirectory.NewHandler(searchdirectory.LoadConfig(), j.app.Directory, log)
	out, err := search.Execute(ctx, &searchdirectory.Input{SearchTerm: "visa", SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)

	resolve := resolveprofile.NewHandler(resolveprofile.LoadConfig(), j.app.Directory, log)
	res, err := resolve.Execute(ctx, &resolveprofile.Input{LocationSlug: "dubai", NameSlug: "acme"})
	require.NoError(t, err)
	assert.True(t, res.Redirect)
	assert.Equal(t, "business-bay/acme-visa-co", res.CanonicalSlug)

	file := filecomplaint.NewHandler(filecomplaint.LoadConfig(), j.app.Directory, log)
	_, err = file.Execute(ctx, &filecomplaint.Input{BusinessID: "3"})
	assert.Error(t, err)
}

// ==========================
// 4. Live Services
// ==========================

// TestLiveServices runs against the services described by configs/ when E2E_LIVE is set.
func TestLiveServices(t *testing.T) {
	if os.Getenv("E2E_LIVE") == "" {
		t.Skip("E2E_LIVE not set")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, app.Options{ConnectAttempts: 5, ConnectDelay: time.Second}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close()

	for name, check := range a.Checks() {
		assert.NoError(t, check(ctx), "%s not ready", name)
	}

	n, err := a.Directory.Refresh(ctx)
	require.NoError(t, err)
	t.Logf("✅ %d businesses loaded", n)

	if a.Postgres == nil || n == 0 {
		return
	}
	page, err := a.Directory.Search(ctx, models.DefaultQuery(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)

	c, err := a.Directory.FileComplaint(ctx, complaints.Input{
		BusinessID:    page.Items[0].ID,
		ReporterName:  "E2E Reporter",
		ReporterEmail: "e2e@example.com",
		Subject:       "End-to-end complaint",
		Description:   "Filed by the live end-to-end suite to exercise the complaint store.",
	})
	require.NoError(t, err)
	t.Logf("✅ complaint %s stored", c.ID)

	res, err := a.Directory.ResolveProfile(ctx, profile.Identifier{ID: page.Items[0].ID})
	require.NoError(t, err)
	assert.True(t, res.Redirect)
}
