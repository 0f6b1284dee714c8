package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/celia-console/internal/poller"
	"github.com/jonathan/celia-console/internal/simulation"
	"github.com/jonathan/celia-console/internal/store"
	"github.com/jonathan/celia-console/internal/types"
)

// fakeRemote records create/delete calls.
type fakeRemote struct {
	mu          sync.Mutex
	createID    string
	createErr   error
	createCalls int
	deleteCalls []string
	deleteErr   error
}

func (f *fakeRemote) Create(context.Context, string, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	return f.createID, f.createErr
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

// fakeEngine replays scripted events.
type fakeEngine struct {
	events []simulation.Event
	block  chan struct{} // if non-nil, wait before emitting
}

func (f *fakeEngine) Run(ctx context.Context, _ simulation.Request) <-chan simulation.Event {
	out := make(chan simulation.Event)
	go func() {
		defer close(out)
		if f.block != nil {
			<-f.block
		}
		for _, ev := range f.events {
			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()
	return out
}

// fakeRefresher counts immediate reconciliation requests.
type fakeRefresher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRefresher) RefreshNow(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func scriptedEvents() []simulation.Event {
	return []simulation.Event{
		{Kind: simulation.EventLog, Message: "[SYSTEM] Backend unreachable. Switching to local simulation mode.", Type: types.EntryProcess},
		{Kind: simulation.EventLog, Message: "Cloning workspace", Type: types.EntryGit},
		{Kind: simulation.EventLog, Message: "Writing module", Type: types.EntryPlan},
		{Kind: simulation.EventComplete, Files: []types.FileArtifact{{Name: "main.go", Path: "output/main.go"}}},
	}
}

func newConsole(remote *fakeRemote, engine SimEngine, online bool) (*Console, *store.Store, *fakeRefresher) {
	st := store.New()
	flag := poller.NewOnlineFlag()
	flag.Set(online)
	refresher := &fakeRefresher{}
	return New(st, remote, engine, flag, refresher), st, refresher
}

func TestCreateJob_RemoteSuccess(t *testing.T) {
	remote := &fakeRemote{createID: "srv-42"}
	c, _, refresher := newConsole(remote, &fakeEngine{}, true)
	defer c.Close()

	resp, err := c.CreateJob(context.Background(), types.CreateJobRequest{Task: "build it"})
	require.NoError(t, err)
	assert.Equal(t, "srv-42", resp.JobID)
	assert.False(t, resp.Simulated)
	assert.Equal(t, 1, refresher.calls, "remote success triggers an immediate reconciliation")

	// The new job becomes the active selection once the poller lands it.
	c.mu.Lock()
	assert.Equal(t, "srv-42", c.activeID)
	c.mu.Unlock()
}

func TestCreateJob_OfflineSkipsRemoteEntirely(t *testing.T) {
	remote := &fakeRemote{createID: "srv-1"}
	c, st, _ := newConsole(remote, &fakeEngine{events: scriptedEvents()}, false)
	defer c.Close()

	resp, err := c.CreateJob(context.Background(), types.CreateJobRequest{Task: "offline task"})
	require.NoError(t, err)

	assert.Equal(t, 0, remote.createCalls, "offline flag must short-circuit the remote attempt")
	assert.True(t, resp.Simulated)
	assert.True(t, strings.HasPrefix(resp.JobID, "sim-"))

	job, ok := st.Get(resp.JobID)
	require.True(t, ok)
	assert.True(t, job.IsSimulation)
	assert.Equal(t, types.StatusRunning, job.Status)
	assert.Contains(t, job.Logs, "[SYSTEM]")
}

func TestCreateJob_RemoteFailureFallsBackToSimulation(t *testing.T) {
	remote := &fakeRemote{createErr: errors.New("connection refused")}
	c, st, _ := newConsole(remote, &fakeEngine{events: scriptedEvents()}, true)
	defer c.Close()

	resp, err := c.CreateJob(context.Background(), types.CreateJobRequest{Task: "flaky backend"})
	require.NoError(t, err)
	assert.Equal(t, 1, remote.createCalls)
	assert.True(t, resp.Simulated)
	assert.False(t, c.Online(), "a failed create marks the backend offline")

	// The simulation drives the job to completion.
	assert.Eventually(t, func() bool {
		job, ok := st.Get(resp.JobID)
		return ok && job.Status == types.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	job, _ := st.Get(resp.JobID)
	require.Len(t, job.Files, 1)
	assert.Equal(t, "main.go", job.Files[0].Name)
	assert.Contains(t, job.Logs, "[GIT] Cloning workspace")
	assert.Contains(t, job.Logs, "[SUCCESS] All objectives verified")
}

func TestCreateJob_FailedSimulationLeavesJobRunning(t *testing.T) {
	// The engine could not obtain a plan: one error log event, no
	// complete event, channel closes.
	engine := &fakeEngine{events: []simulation.Event{
		{Kind: simulation.EventLog, Message: "[SYSTEM] Backend unreachable. Switching to local simulation mode.", Type: types.EntryProcess},
		{Kind: simulation.EventLog, Message: "[ERROR] simulation failed: model call failed: quota exhausted", Type: types.EntryError},
	}}
	c, st, _ := newConsole(&fakeRemote{}, engine, false)
	defer c.Close()

	resp, err := c.CreateJob(context.Background(), types.CreateJobRequest{Task: "doomed plan"})
	require.NoError(t, err)

	// Wait for the error line to land, then confirm nothing else moves.
	assert.Eventually(t, func() bool {
		job, ok := st.Get(resp.JobID)
		return ok && strings.Contains(job.Logs, "[ERROR]")
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	job, ok := st.Get(resp.JobID)
	require.True(t, ok)
	assert.Equal(t, types.StatusRunning, job.Status, "a failed simulation never transitions the job")
	assert.Empty(t, job.Files)
	assert.NotContains(t, job.Logs, "[SUCCESS]")
	assert.Equal(t, 1, strings.Count(job.Logs, "[ERROR]"))

	entries := c.JobLog(resp.JobID)
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, types.EntryError, last.Type)
	assert.Contains(t, last.Message, "quota exhausted")
}

func TestCreateJob_InvalidRequest(t *testing.T) {
	c, _, _ := newConsole(&fakeRemote{}, &fakeEngine{}, true)
	defer c.Close()

	_, err := c.CreateJob(context.Background(), types.CreateJobRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid job request")
}

func TestJobLog_ClassifiesSimulatedLines(t *testing.T) {
	c, st, _ := newConsole(&fakeRemote{createErr: errors.New("down")}, &fakeEngine{events: scriptedEvents()}, true)
	defer c.Close()

	resp, err := c.CreateJob(context.Background(), types.CreateJobRequest{Task: "log check"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		job, ok := st.Get(resp.JobID)
		return ok && job.Status == types.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	entries := c.JobLog(resp.JobID)
	require.NotEmpty(t, entries)
	kinds := make(map[types.EntryType]bool)
	for _, e := range entries {
		kinds[e.Type] = true
		assert.NotEmpty(t, e.Timestamp)
	}
	assert.True(t, kinds[types.EntryProcess])
	assert.True(t, kinds[types.EntryGit])
	assert.True(t, kinds[types.EntrySuccess])
}

func TestDeleteJob_RemovesAndClearsActive(t *testing.T) {
	remote := &fakeRemote{createID: "srv-7"}
	c, st, _ := newConsole(remote, &fakeEngine{}, true)
	defer c.Close()

	require.NoError(t, st.Insert(types.Job{ID: "srv-7", Task: "t", CreatedAt: time.Now()}))
	require.True(t, c.SelectJob("srv-7"))

	c.DeleteJob(context.Background(), "srv-7")

	_, ok := st.Get("srv-7")
	assert.False(t, ok)
	_, active := c.ActiveJob()
	assert.False(t, active)
	assert.Equal(t, []string{"srv-7"}, remote.deleteCalls)
}

func TestDeleteJob_RemoteFailureStillRemovesLocally(t *testing.T) {
	remote := &fakeRemote{deleteErr: errors.New("backend gone")}
	c, st, _ := newConsole(remote, &fakeEngine{}, true)
	defer c.Close()

	require.NoError(t, st.Insert(types.Job{ID: "srv-8", CreatedAt: time.Now()}))
	c.DeleteJob(context.Background(), "srv-8")

	_, ok := st.Get("srv-8")
	assert.False(t, ok)
}

func TestDeleteJob_SimulationSkipsRemoteDelete(t *testing.T) {
	remote := &fakeRemote{}
	c, st, _ := newConsole(remote, &fakeEngine{}, true)
	defer c.Close()

	require.NoError(t, st.Insert(types.Job{ID: "sim-abc", IsSimulation: true, CreatedAt: time.Now()}))
	c.DeleteJob(context.Background(), "sim-abc")

	assert.Empty(t, remote.deleteCalls, "simulated jobs have nothing to delete remotely")
}

func TestDeleteJob_LateCallbacksDoNotResurrect(t *testing.T) {
	engine := &fakeEngine{events: scriptedEvents(), block: make(chan struct{})}
	c, st, _ := newConsole(&fakeRemote{createErr: errors.New("down")}, engine, true)
	defer c.Close()

	resp, err := c.CreateJob(context.Background(), types.CreateJobRequest{Task: "doomed"})
	require.NoError(t, err)

	// Delete while the engine is still blocked, then let it fire.
	c.DeleteJob(context.Background(), resp.JobID)
	close(engine.block)

	// Give the callbacks time to land; they must all be no-ops.
	time.Sleep(50 * time.Millisecond)
	_, ok := st.Get(resp.JobID)
	assert.False(t, ok)
	assert.NotContains(t, listIDs(st), resp.JobID)
}

func TestSelectJob_UnknownID(t *testing.T) {
	c, _, _ := newConsole(&fakeRemote{}, &fakeEngine{}, true)
	defer c.Close()

	assert.False(t, c.SelectJob("nope"))
	_, ok := c.ActiveJob()
	assert.False(t, ok)
}

func listIDs(st *store.Store) []string {
	var ids []string
	for _, j := range st.List() {
		ids = append(ids, j.ID)
	}
	return ids
}
