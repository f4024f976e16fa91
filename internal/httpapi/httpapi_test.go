package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/store"
)

func testServer(t *testing.T) (*httptest.Server, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv := httptest.NewServer(Handler(Deps{DB: db.Pool, DefaultHours: 24}))
	t.Cleanup(srv.Close)
	return srv, db
}

func seedJobs(t *testing.T, db *store.DB) {
	t.Helper()
	now := time.Now().UTC()
	posted := now.Add(-2 * time.Hour)
	jobs := []domain.Job{
		{
			JobID: "remotive_1", Source: "remotive", Title: "CRM Manager",
			Company: "Acme", URL: "https://example.com/1", Hash: "h1",
			KeywordsMatched: []string{"crm"}, PostedAt: &posted, FetchedAt: now,
		},
		{
			JobID: "remoteok_2", Source: "remoteok", Title: "Sales Lead",
			Company: "Beta", URL: "https://example.com/2", Hash: "h2",
			FetchedAt: now,
		},
	}
	_, _, _, err := store.UpsertAll(context.Background(), db.Pool, jobs)
	require.NoError(t, err)
}

type jobsResponse struct {
	Count       int          `json:"count"`
	Hours       int          `json:"hours"`
	Jobs        []domain.Job `json:"jobs"`
	Stats       store.Stats  `json:"stats"`
	GeneratedAt string       `json:"generated_at"`
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func TestJobsEndpoint(t *testing.T) {
	srv, db := testServer(t)
	seedJobs(t, db)

	var body jobsResponse
	res := getJSON(t, srv.URL+"/api/jobs", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 24, body.Hours)
	assert.Equal(t, 2, body.Stats.TotalJobs)
	assert.NotEmpty(t, body.GeneratedAt)

	// dated job sorts before the undated one
	require.Len(t, body.Jobs, 2)
	assert.Equal(t, "remotive_1", body.Jobs[0].JobID)
}

func TestJobsEndpointFilters(t *testing.T) {
	srv, db := testServer(t)
	seedJobs(t, db)

	var bySource jobsResponse
	getJSON(t, srv.URL+"/api/jobs?source=remoteok", &bySource)
	require.Equal(t, 1, bySource.Count)
	assert.Equal(t, "remoteok", bySource.Jobs[0].Source)

	var byKeyword jobsResponse
	getJSON(t, srv.URL+"/api/jobs?keyword=crm", &byKeyword)
	require.Equal(t, 1, byKeyword.Count)
	assert.Equal(t, "remotive_1", byKeyword.Jobs[0].JobID)

	var limited jobsResponse
	getJSON(t, srv.URL+"/api/jobs?limit=1", &limited)
	assert.Equal(t, 1, limited.Count)
}

func TestJobsEndpointBadParams(t *testing.T) {
	srv, _ := testServer(t)

	res := getJSON(t, srv.URL+"/api/jobs?hours=banana", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = getJSON(t, srv.URL+"/api/jobs?hours=-5", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = getJSON(t, srv.URL+"/api/jobs?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	srv, db := testServer(t)
	seedJobs(t, db)

	var stats store.Stats
	res := getJSON(t, srv.URL+"/api/stats", &stats)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 2, stats.TotalJobs)
	assert.Equal(t, 1, stats.BySource["remotive"])
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	var body map[string]any
	res := getJSON(t, srv.URL+"/api/health", &body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["store_connected"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := testServer(t)

	res, err := http.Post(srv.URL+"/api/jobs", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := testServer(t)

	res, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, "fixed-id", res2.Header.Get("X-Request-ID"))
}
