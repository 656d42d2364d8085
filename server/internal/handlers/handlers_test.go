package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lain-code/lain/internal/aggregator"
	"github.com/lain-code/lain/internal/model"
	"github.com/lain-code/lain/internal/project"
	"github.com/lain-code/lain/server/internal/templates"
)

const sessionLog = `{"type":"user","sessionId":"abc","timestamp":"2025-03-01T10:00:00Z","cwd":"/home/alice/git/myrepo"}
{"type":"assistant","sessionId":"abc","timestamp":"2025-03-01T10:00:05Z","message":{"model":"claude-sonnet-4-20250514","usage":{"input_tokens":1000,"output_tokens":1200}}}
`

// mapStore is an scs.Store that exposes how many sessions it holds
type mapStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func (m *mapStore) Find(token string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.sessions[token]
	return b, ok, nil
}

func (m *mapStore) Commit(token string, b []byte, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = b
	return nil
}

func (m *mapStore) Delete(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *mapStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func newServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv, root, _ := newServerWithStore(t)
	return srv, root
}

func newServerWithStore(t *testing.T) (*httptest.Server, string, *mapStore) {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "-home-alice-git-myrepo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.jsonl"), []byte(sessionLog), 0o644))

	tmpl, err := templates.Parse()
	require.NoError(t, err)
	static, err := templates.Static()
	require.NoError(t, err)

	store := &mapStore{sessions: make(map[string][]byte)}
	sessionMgr := scs.New()
	sessionMgr.Store = store
	agg := aggregator.New(root, project.NewResolver(), nil)
	h := New(agg, sessionMgr, tmpl, static, nil)

	srv := httptest.NewServer(sessionMgr.LoadAndSave(h.Routes()))
	t.Cleanup(srv.Close)
	return srv, root, store
}

func getJSON(t *testing.T, client *http.Client, url string, v interface{}) int {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestAPIProjects(t *testing.T) {
	srv, _ := newServer(t)

	var projects map[string]model.ProjectEntry
	status := getJSON(t, srv.Client(), srv.URL+"/api/projects", &projects)

	assert.Equal(t, http.StatusOK, status)
	require.Contains(t, projects, "-home-alice-git-myrepo")
	entry := projects["-home-alice-git-myrepo"]
	assert.Equal(t, "myrepo", entry.Name)
	assert.Equal(t, 1, entry.Sessions)
}

func TestAPIStats(t *testing.T) {
	srv, _ := newServer(t)

	var stats model.AggregateStats
	status := getJSON(t, srv.Client(), srv.URL+"/api/stats", &stats)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, 1, stats.APICalls)
	assert.Equal(t, 1, stats.FilesScanned)
	assert.Equal(t, int64(1000), stats.InputTokens)
	assert.Equal(t, int64(1200), stats.OutputTokens)
	assert.Equal(t, 0.02, stats.Cost)
	require.Len(t, stats.SessionsList, 1)
	assert.Equal(t, "abc", stats.SessionsList[0].SessionID)
	assert.Equal(t, 0.021, stats.SessionsList[0].Cost)
	assert.Equal(t, "myrepo", stats.SessionsList[0].Project)
}

func TestAPIStatsFilters(t *testing.T) {
	srv, _ := newServer(t)

	var stats model.AggregateStats
	getJSON(t, srv.Client(), srv.URL+"/api/stats?start=2025-03-02", &stats)
	assert.Equal(t, 0, stats.Sessions)
	assert.Equal(t, 1, stats.FilesScanned)
	assert.NotNil(t, stats.SessionsList)

	getJSON(t, srv.Client(), srv.URL+"/api/stats?projects=other", &stats)
	assert.Equal(t, 0, stats.Sessions)
	assert.Equal(t, 0, stats.FilesScanned)
}

func TestAPIStatsInvalidDate(t *testing.T) {
	srv, _ := newServer(t)

	var body map[string]string
	status := getJSON(t, srv.Client(), srv.URL+"/api/stats?start=03/01/2025", &body)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "invalid date")
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := srv.Client().Post(srv.URL+"/api/stats", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPreferencesRoundTrip(t *testing.T) {
	srv, _ := newServer(t)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	var prefs PreferencesResponse
	getJSON(t, client, srv.URL+"/api/preferences", &prefs)
	assert.Equal(t, PreferencesResponse{Projects: []string{}}, prefs)

	var stats model.AggregateStats
	getJSON(t, client, srv.URL+"/api/stats?projects=-home-alice-git-myrepo&start=2025-03-01&end=2025-03-31", &stats)

	getJSON(t, client, srv.URL+"/api/preferences", &prefs)
	assert.Equal(t, []string{"-home-alice-git-myrepo"}, prefs.Projects)
	assert.Equal(t, "2025-03-01", prefs.Start)
	assert.Equal(t, "2025-03-31", prefs.End)

	// A fresh client has its own session
	var fresh PreferencesResponse
	getJSON(t, srv.Client(), srv.URL+"/api/preferences", &fresh)
	assert.Empty(t, fresh.Projects)
	assert.Empty(t, fresh.Start)
}

func TestAPIStatsWithoutCookieStoresNothing(t *testing.T) {
	srv, _, store := newServerWithStore(t)

	for i := 0; i < 50; i++ {
		var stats model.AggregateStats
		getJSON(t, srv.Client(), srv.URL+"/api/stats?projects=-home-alice-git-myrepo&start=2025-03-01", &stats)
		assert.Equal(t, 1, stats.Sessions)
	}
	assert.Equal(t, 0, store.Len())

	// The dashboard page opens exactly one session per browser
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}
	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, 1, store.Len())
}

func TestHealth(t *testing.T) {
	srv, root := newServer(t)

	var health HealthResponse
	status := getJSON(t, srv.Client(), srv.URL+"/healthz", &health)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, HealthResponse{Status: "healthy", DataDirExists: true}, health)

	require.NoError(t, os.RemoveAll(root))
	getJSON(t, srv.Client(), srv.URL+"/healthz", &health)
	assert.False(t, health.DataDirExists)
}

func TestIndex(t *testing.T) {
	srv, root := newServer(t)

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), root)
	assert.Contains(t, string(body), "claude-opus-4")
	assert.Contains(t, string(body), "/static/app.js")

	resp, err = srv.Client().Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatic(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := srv.Client().Get(srv.URL + "/static/app.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/api/stats")
}
