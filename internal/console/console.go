// Package console is the top-level controller for the agent console:
// it owns the job store, routes job creation between the remote backend
// and the local simulation fallback, and tracks the active selection.
package console

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/celia-console/internal/logfmt"
	"github.com/jonathan/celia-console/internal/poller"
	"github.com/jonathan/celia-console/internal/simulation"
	"github.com/jonathan/celia-console/internal/store"
	"github.com/jonathan/celia-console/internal/types"
)

// simIDPrefix marks locally-generated job ids.
const simIDPrefix = "sim-"

// RemoteAPI is the slice of the backend client the console needs.
type RemoteAPI interface {
	Create(ctx context.Context, task, repoURL string) (string, error)
	Delete(ctx context.Context, id string) error
}

// SimEngine starts simulation runs.
type SimEngine interface {
	Run(ctx context.Context, req simulation.Request) <-chan simulation.Event
}

// Refresher triggers an immediate reconciliation fetch.
type Refresher interface {
	RefreshNow(ctx context.Context)
}

// Console wires user actions to the store, backend, and simulation
// engine.
type Console struct {
	store     *store.Store
	remote    RemoteAPI
	engine    SimEngine
	flag      *poller.OnlineFlag
	refresher Refresher

	mu       sync.Mutex
	activeID string

	// runCtx outlives individual requests so in-flight simulations are
	// not tied to the HTTP request that started them.
	runCtx    context.Context
	cancelRun context.CancelFunc
	runs      sync.WaitGroup

	now func() time.Time
}

// New creates a Console. The refresher may be nil (no immediate fetch
// after a remote create).
func New(st *store.Store, remote RemoteAPI, engine SimEngine, flag *poller.OnlineFlag, refresher Refresher) *Console {
	ctx, cancel := context.WithCancel(context.Background())
	return &Console{
		store:     st,
		remote:    remote,
		engine:    engine,
		flag:      flag,
		refresher: refresher,
		runCtx:    ctx,
		cancelRun: cancel,
		now:       time.Now,
	}
}

// Close cancels in-flight simulation runs and waits for them to drain.
func (c *Console) Close() {
	c.cancelRun()
	c.runs.Wait()
}

// CreateJob dispatches a new job. It attempts the remote backend first
// (unless it is already known to be offline), and on any failure falls
// back to a local simulation. The returned response always names a job
// that is present in the store.
func (c *Console) CreateJob(ctx context.Context, req types.CreateJobRequest) (types.CreateJobResponse, error) {
	if err := req.Validate(); err != nil {
		return types.CreateJobResponse{}, fmt.Errorf("invalid job request: %w", err)
	}

	if c.flag.Online() {
		jobID, err := c.remote.Create(ctx, req.Task, req.RepoURL)
		if err == nil {
			if c.refresher != nil {
				c.refresher.RefreshNow(ctx)
			}
			c.setActive(jobID)
			return types.CreateJobResponse{JobID: jobID, Simulated: false}, nil
		}
		log.Printf("console: remote create failed, falling back to simulation: %v", err)
		c.flag.Set(false)
	}

	jobID, err := c.startSimulation(req)
	if err != nil {
		return types.CreateJobResponse{}, err
	}
	c.setActive(jobID)
	return types.CreateJobResponse{JobID: jobID, Simulated: true}, nil
}

// startSimulation synthesizes a local job and binds an engine run to it.
func (c *Console) startSimulation(req types.CreateJobRequest) (string, error) {
	jobID := simIDPrefix + uuid.NewString()[:8]
	job := types.Job{
		ID:           jobID,
		Task:         req.Task,
		Persona:      req.Persona,
		RepoURL:      req.RepoURL,
		UseSearch:    req.UseSearch,
		Status:       types.StatusRunning,
		CreatedAt:    c.now(),
		Logs:         c.logLine("[SYSTEM] Remote dispatch failed. Starting local simulation."),
		Files:        []types.FileArtifact{},
		IsSimulation: true,
	}
	if err := c.store.Insert(job); err != nil {
		return "", fmt.Errorf("failed to register simulated job: %w", err)
	}

	events := c.engine.Run(c.runCtx, simulation.Request{
		Task:      req.Task,
		RepoURL:   req.RepoURL,
		Persona:   req.Persona,
		UseSearch: req.UseSearch,
	})

	c.runs.Add(1)
	go c.consume(jobID, events)
	return jobID, nil
}

// consume routes one run's events into store patches. Patches against a
// deleted id are silent no-ops; the run is never recreated.
func (c *Console) consume(jobID string, events <-chan simulation.Event) {
	defer c.runs.Done()
	for ev := range events {
		switch ev.Kind {
		case simulation.EventLog:
			c.store.UpsertOne(jobID, types.JobPatch{
				AppendLog: c.logLine(taggedMessage(ev)),
			})
		case simulation.EventComplete:
			completed := types.StatusCompleted
			c.store.UpsertOne(jobID, types.JobPatch{
				Status:    &completed,
				Files:     ev.Files,
				AppendLog: c.logLine("[SUCCESS] All objectives verified. Artifacts ready."),
			})
		}
	}
}

// DeleteJob removes a job unconditionally. The active selection is
// cleared if it pointed at the job. Remote deletion is best effort; its
// outcome never blocks or fails the local removal.
func (c *Console) DeleteJob(ctx context.Context, id string) {
	job, existed := c.store.Get(id)
	c.store.Remove(id)

	c.mu.Lock()
	if c.activeID == id {
		c.activeID = ""
	}
	c.mu.Unlock()

	if existed && !job.IsSimulation {
		if err := c.remote.Delete(ctx, id); err != nil {
			log.Printf("console: remote delete of %s failed (job removed locally): %v", id, err)
		}
	}
}

// SelectJob marks a job as the active selection.
func (c *Console) SelectJob(id string) bool {
	if _, ok := c.store.Get(id); !ok {
		return false
	}
	c.setActive(id)
	return true
}

// ActiveJob returns the currently selected job, if any.
func (c *Console) ActiveJob() (types.Job, bool) {
	c.mu.Lock()
	id := c.activeID
	c.mu.Unlock()
	if id == "" {
		return types.Job{}, false
	}
	return c.store.Get(id)
}

// Jobs returns all jobs, newest first.
func (c *Console) Jobs() []types.Job {
	return c.store.List()
}

// Job returns one job by id.
func (c *Console) Job(id string) (types.Job, bool) {
	return c.store.Get(id)
}

// JobLog returns a job's parsed log entries.
func (c *Console) JobLog(id string) []types.LogEntry {
	job, ok := c.store.Get(id)
	if !ok {
		return nil
	}
	return logfmt.Parse(job.Logs)
}

// Online reports the last known backend reachability.
func (c *Console) Online() bool {
	return c.flag.Online()
}

func (c *Console) setActive(id string) {
	c.mu.Lock()
	c.activeID = id
	c.mu.Unlock()
}

// logLine renders one timestamp-bracketed, newline-terminated log line.
func (c *Console) logLine(message string) string {
	return fmt.Sprintf("[%s] %s\n", c.now().Format("15:04:05"), message)
}

// taggedMessage prefixes a step message with the marker for its type so
// classification survives the round trip through the raw log blob.
// Engine notices already carry their own markers.
func taggedMessage(ev simulation.Event) string {
	if strings.HasPrefix(ev.Message, "[") {
		return ev.Message
	}
	switch ev.Type {
	case types.EntryError:
		return "[ERROR] " + ev.Message
	case types.EntrySuccess:
		return "[SUCCESS] " + ev.Message
	case types.EntryGit:
		return "[GIT] " + ev.Message
	case types.EntryBrain:
		return "[BRAIN] " + ev.Message
	case types.EntryPlan:
		return "[PLAN] " + ev.Message
	case types.EntryProcess:
		return "[SYSTEM] " + ev.Message
	default:
		return ev.Message
	}
}
