// Package poller periodically reconciles the job store against the
// remote backend and tracks backend reachability.
package poller

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/jonathan/celia-console/internal/store"
	"github.com/jonathan/celia-console/internal/types"
)

// DefaultInterval is the reconciliation period.
const DefaultInterval = 10 * time.Second

// OnlineFlag is the process-wide backend reachability cell. It is set
// by poll results, read by the orchestrator (to skip doomed create
// calls) and by the UI (offline indicator). It never affects polling
// itself; polling while offline is how online state is rediscovered.
type OnlineFlag struct {
	online atomic.Bool
}

// NewOnlineFlag returns a flag that starts optimistic.
func NewOnlineFlag() *OnlineFlag {
	f := &OnlineFlag{}
	f.online.Store(true)
	return f
}

// Set records the latest backend reachability.
func (f *OnlineFlag) Set(online bool) {
	f.online.Store(online)
}

// Online reports the last known backend reachability.
func (f *OnlineFlag) Online() bool {
	return f.online.Load()
}

// JobLister is the slice of the remote client the poller needs.
type JobLister interface {
	List(ctx context.Context) ([]types.Job, error)
}

// Poller drives the reconciliation loop.
type Poller struct {
	client   JobLister
	store    *store.Store
	flag     *OnlineFlag
	interval time.Duration
}

// New creates a Poller. A non-positive interval uses DefaultInterval.
func New(client JobLister, st *store.Store, flag *OnlineFlag, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{client: client, store: st, flag: flag, interval: interval}
}

// Run reconciles once immediately, then on every tick until the context
// is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.RefreshNow(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RefreshNow(ctx)
		}
	}
}

// RefreshNow performs a single reconciliation fetch. On failure the
// store is left untouched and the flag goes offline; existing jobs are
// never cleared by an unreachable backend.
func (p *Poller) RefreshNow(ctx context.Context) {
	jobs, err := p.client.List(ctx)
	if err != nil {
		if p.flag.Online() {
			log.Printf("poller: backend unreachable: %v", err)
		}
		p.flag.Set(false)
		return
	}
	p.flag.Set(true)
	p.store.UpsertMany(jobs)
}
