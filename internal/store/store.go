// Package store provides the in-memory job store that is the single
// source of truth for the console UI.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jonathan/celia-console/internal/types"
)

// Store holds all known jobs keyed by id. Server-reported jobs and
// locally-simulated jobs live side by side; reconciliation merges the
// former without ever discarding the latter.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*types.Job
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		jobs: make(map[string]*types.Job),
	}
}

// Insert adds a new job. It fails if the id is already taken.
func (s *Store) Insert(job types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	j := job
	s.jobs[job.ID] = &j
	return nil
}

// UpsertMany merges a server-reported job list into the store. Incoming
// jobs replace same-id entries; jobs absent from the incoming list are
// dropped unless they are simulations, which the server knows nothing
// about and must never clobber.
func (s *Store) UpsertMany(incoming []types.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[string]*types.Job, len(incoming))
	for i := range incoming {
		j := incoming[i]
		if existing, ok := s.jobs[j.ID]; ok && existing.IsSimulation {
			// Simulation-owned jobs keep their local state.
			merged[j.ID] = existing
			continue
		}
		merged[j.ID] = &j
	}
	for id, existing := range s.jobs {
		if _, ok := merged[id]; !ok && existing.IsSimulation {
			merged[id] = existing
		}
	}
	s.jobs = merged
}

// UpsertOne applies a partial patch to an existing job. Patching an
// absent id is a silent no-op returning false: callbacks for a deleted
// job must not recreate it.
func (s *Store) UpsertOne(id string, patch types.JobPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.AppendLog != "" {
		job.Logs += patch.AppendLog
	}
	if patch.Files != nil {
		job.Files = cloneFiles(patch.Files)
	}
	return true
}

// Remove deletes a job unconditionally. Returns false if absent.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}

// Get returns a copy of the job with the given id.
func (s *Store) Get(id string) (types.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return types.Job{}, false
	}
	return cloneJob(job), true
}

// List returns copies of all jobs ordered by creation time descending,
// newest first. Ties break on id so the order is stable.
func (s *Store) List() []types.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, cloneJob(job))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of stored jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func cloneJob(job *types.Job) types.Job {
	out := *job
	if job.Files != nil {
		out.Files = cloneFiles(job.Files)
	}
	return out
}

// cloneFiles copies a file list without collapsing an empty slice to
// nil, so a completed job with zero artifacts still serializes as [].
func cloneFiles(files []types.FileArtifact) []types.FileArtifact {
	out := make([]types.FileArtifact, len(files))
	copy(out, files)
	return out
}
