// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/asfstats/internal/metrics"
)

// ErrBusy is returned when a refresh is already in progress.
var ErrBusy = errors.New("refresh already in progress")

// Runner serializes refresh runs and remembers the last outcome. The
// HTTP trigger and the cron schedule share one Runner so only a single
// refresh touches the store and artifact at a time.
type Runner struct {
	cfg  Config
	deps Deps

	running atomic.Bool

	mu     sync.RWMutex
	status Status
}

func NewRunner(cfg Config, deps Deps) *Runner {
	return &Runner{cfg: cfg, deps: deps}
}

// Run executes one refresh unless another is in flight, in which case
// it fails fast with ErrBusy.
func (r *Runner) Run(ctx context.Context) (*Status, error) {
	if !r.running.CompareAndSwap(false, true) {
		metrics.RecordRefreshOutcome("busy")
		return nil, ErrBusy
	}
	defer r.running.Store(false)

	ctx, span := StartRefreshSpan(ctx)
	defer span.End()

	start := time.Now()
	status, err := Refresh(ctx, r.cfg, r.deps)
	metrics.ObserveRefreshDuration(time.Since(start))
	EmitRefreshObs(ctx, status, err)

	if err != nil {
		metrics.RecordRefreshOutcome("failure")
		r.mu.Lock()
		// The previous catalog stays valid on failure, so counts and
		// LastRun are kept. Details go to the log, not the status.
		r.status.Error = "refresh operation failed"
		r.mu.Unlock()
		return nil, err
	}

	metrics.RecordRefreshOutcome("success")
	r.mu.Lock()
	r.status = *status
	r.mu.Unlock()
	return status, nil
}

// Status returns a copy of the last refresh outcome.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Running reports whether a refresh is currently in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}
