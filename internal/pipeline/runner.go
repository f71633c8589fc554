// Package pipeline turns raw uploads into mergeable documents and runs merges
// behind a process-wide concurrency gate.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/tocmerge/internal/merge"
	"github.com/dgallion1/tocmerge/internal/render"
	"github.com/dgallion1/tocmerge/internal/stats"
)

// ErrBusy is returned when every merge slot is taken.
var ErrBusy = errors.New("too many merges in progress")

// Runner owns the merger, the merge gate and the outcome window.
type Runner struct {
	merger     *merge.Merger
	renderOpts render.Options
	gate       chan struct{}
	workers    int
	window     *stats.Window
	log        *slog.Logger
}

// NewRunner allows at most maxConcurrent merges at once. Upload preparation
// uses the same number of workers per request.
func NewRunner(merger *merge.Merger, renderOpts render.Options, maxConcurrent int, window *stats.Window, log *slog.Logger) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Runner{
		merger:     merger,
		renderOpts: renderOpts,
		gate:       make(chan struct{}, maxConcurrent),
		workers:    maxConcurrent,
		window:     window,
		log:        log,
	}
}

// Merge runs one merge if a slot is free and records the outcome, including
// rejection. It never waits for a slot.
func (r *Runner) Merge(ctx context.Context, docs []merge.Document, titles map[string]string, opts merge.Options) (*merge.Result, error) {
	select {
	case r.gate <- struct{}{}:
	default:
		r.window.Rejected()
		r.log.Warn("merge rejected", "reason", "gate_full", "capacity", cap(r.gate))
		return nil, ErrBusy
	}
	defer func() { <-r.gate }()

	start := time.Now()
	res, err := r.merger.Merge(ctx, docs, titles, opts)
	if err != nil {
		r.window.Failed()
		return nil, err
	}
	r.window.Succeeded(time.Since(start), res.PageCount)
	return res, nil
}

// InFlight returns the number of merges currently running.
func (r *Runner) InFlight() int {
	return len(r.gate)
}

// Stats summarises recent merge outcomes.
func (r *Runner) Stats() stats.Snapshot {
	return r.window.Snapshot()
}
