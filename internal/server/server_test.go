package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/celia-console/internal/console"
	"github.com/jonathan/celia-console/internal/poller"
	"github.com/jonathan/celia-console/internal/simulation"
	"github.com/jonathan/celia-console/internal/store"
	"github.com/jonathan/celia-console/internal/types"
)

type stubRemote struct {
	createID  string
	createErr error
}

func (s *stubRemote) Create(context.Context, string, string) (string, error) {
	return s.createID, s.createErr
}

func (s *stubRemote) Delete(context.Context, string) error { return nil }

func (s *stubRemote) List(context.Context) ([]types.Job, error) {
	return nil, errors.New("unreachable")
}

type stubEngine struct {
	events []simulation.Event
}

func (s *stubEngine) Run(ctx context.Context, _ simulation.Request) <-chan simulation.Event {
	out := make(chan simulation.Event)
	go func() {
		defer close(out)
		for _, ev := range s.events {
			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()
	return out
}

type fixture struct {
	server  *Server
	console *console.Console
	store   *store.Store
	flag    *poller.OnlineFlag
}

func newFixture(t *testing.T, remote *stubRemote, engine *stubEngine, online bool) *fixture {
	t.Helper()
	st := store.New()
	flag := poller.NewOnlineFlag()
	flag.Set(online)
	c := console.New(st, remote, engine, flag, nil)
	t.Cleanup(c.Close)
	p := poller.New(remote, st, flag, time.Hour)
	return &fixture{server: New(Config{Port: 0}, c, p), console: c, store: st, flag: flag}
}

func TestHandleListJobs(t *testing.T) {
	f := newFixture(t, &stubRemote{}, &stubEngine{}, true)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.store.Insert(types.Job{ID: "old", Task: "a", CreatedAt: base}))
	require.NoError(t, f.store.Insert(types.Job{ID: "new", Task: "b", CreatedAt: base.Add(time.Hour)}))

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []types.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 2)
	assert.Equal(t, "new", jobs[0].ID, "jobs are listed newest first")
}

func TestHandleCreateJob_FallsBackWhenOffline(t *testing.T) {
	engine := &stubEngine{events: []simulation.Event{
		{Kind: simulation.EventComplete, Files: nil},
	}}
	f := newFixture(t, &stubRemote{}, engine, false)

	body, _ := json.Marshal(types.CreateJobRequest{Task: "do a thing"})
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(body)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp types.CreateJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Simulated)
	assert.True(t, strings.HasPrefix(resp.JobID, "sim-"))

	job, ok := f.store.Get(resp.JobID)
	require.True(t, ok)
	assert.True(t, job.IsSimulation)
}

func TestHandleCreateJob_Validation(t *testing.T) {
	f := newFixture(t, &stubRemote{}, &stubEngine{}, true)

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetJob_WithEntries(t *testing.T) {
	f := newFixture(t, &stubRemote{}, &stubEngine{}, true)
	require.NoError(t, f.store.Insert(types.Job{
		ID:        "j1",
		Task:      "t",
		Status:    types.StatusRunning,
		CreatedAt: time.Now(),
		Logs:      "[10:00:00] [SYSTEM] boot\n[10:00:01] [SUCCESS] done\n",
	}))

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/j1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp JobDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "j1", resp.ID)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, types.EntryProcess, resp.Entries[0].Type)
	assert.Equal(t, types.EntrySuccess, resp.Entries[1].Type)
}

func TestHandleGetJob_NotFound(t *testing.T) {
	f := newFixture(t, &stubRemote{}, &stubEngine{}, true)

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDeleteJob(t *testing.T) {
	f := newFixture(t, &stubRemote{}, &stubEngine{}, true)
	require.NoError(t, f.store.Insert(types.Job{ID: "j1", CreatedAt: time.Now()}))

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/jobs/j1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := f.store.Get("j1")
	assert.False(t, ok)
}

func TestHandleHealth_ReportsOfflineIndicator(t *testing.T) {
	f := newFixture(t, &stubRemote{}, &stubEngine{}, false)

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.BackendOnline)
}

func TestHandleStreamLogs_ReplaysAndCompletes(t *testing.T) {
	f := newFixture(t, &stubRemote{}, &stubEngine{}, true)
	require.NoError(t, f.store.Insert(types.Job{
		ID:        "j1",
		Status:    types.StatusCompleted,
		CreatedAt: time.Now(),
		Logs:      "[10:00:00] [BRAIN] thinking\n[10:00:05] [SUCCESS] done\n",
	}))

	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/jobs/j1/logs/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}
	assert.Equal(t, []string{"log", "log", "complete"}, events)
}

func TestHandleStreamLogs_UnknownJob(t *testing.T) {
	f := newFixture(t, &stubRemote{}, &stubEngine{}, true)

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/ghost/logs/stream", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
