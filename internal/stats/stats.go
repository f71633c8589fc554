// Package stats keeps a rolling window of merge outcomes: how long successful
// merges took, how many pages they produced, and how many merges failed or
// were turned away.
package stats

import (
	"math"
	"slices"
	"sort"
	"sync"
	"time"
)

type outcome int

const (
	succeeded outcome = iota
	failed
	rejected
)

type event struct {
	at      time.Time
	outcome outcome
	elapsed time.Duration
	pages   int
}

// Snapshot aggregates the events still inside the window. Latency figures
// cover successful merges only.
type Snapshot struct {
	Merges      int     `json:"merges"`
	Failures    int     `json:"failures"`
	Rejected    int     `json:"rejected"`
	Pages       int     `json:"pages"`
	PagesPerSec float64 `json:"pages_per_sec"`
	MinMs       int64   `json:"min_ms"`
	MaxMs       int64   `json:"max_ms"`
	AvgMs       float64 `json:"avg_ms"`
	P50Ms       int64   `json:"p50_ms"`
	P95Ms       int64   `json:"p95_ms"`
}

// Window holds events newer than its span.
type Window struct {
	mu     sync.Mutex
	span   time.Duration
	now    func() time.Time
	events []event
}

func NewWindow(span time.Duration) *Window {
	if span <= 0 {
		span = time.Hour
	}
	return &Window{span: span, now: time.Now}
}

// Succeeded records a merge that produced pages in elapsed time.
func (w *Window) Succeeded(elapsed time.Duration, pages int) {
	w.add(event{outcome: succeeded, elapsed: max(elapsed, 0), pages: pages})
}

// Failed records a merge that ran and returned an error.
func (w *Window) Failed() {
	w.add(event{outcome: failed})
}

// Rejected records a merge that never started because no slot was free.
func (w *Window) Rejected() {
	w.add(event{outcome: rejected})
}

func (w *Window) add(e event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e.at = w.now()
	w.expireLocked(e.at)
	w.events = append(w.events, e)
}

// expireLocked drops events older than the span. Events are appended in
// time order, so the survivors are a suffix.
func (w *Window) expireLocked(now time.Time) {
	cutoff := now.Add(-w.span)
	i := sort.Search(len(w.events), func(i int) bool {
		return !w.events[i].at.Before(cutoff)
	})
	if i > 0 {
		w.events = slices.Delete(w.events, 0, i)
	}
}

func (w *Window) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expireLocked(w.now())

	var snap Snapshot
	var durations []int64
	var busy time.Duration
	for _, e := range w.events {
		switch e.outcome {
		case failed:
			snap.Failures++
		case rejected:
			snap.Rejected++
		case succeeded:
			snap.Merges++
			snap.Pages += e.pages
			busy += e.elapsed
			durations = append(durations, e.elapsed.Milliseconds())
		}
	}
	if len(durations) == 0 {
		return snap
	}

	slices.Sort(durations)
	var sum int64
	for _, d := range durations {
		sum += d
	}
	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(sum) / float64(len(durations))
	snap.P50Ms = nearestRank(durations, 50)
	snap.P95Ms = nearestRank(durations, 95)
	if busy > 0 {
		snap.PagesPerSec = float64(snap.Pages) / busy.Seconds()
	}
	return snap
}

// nearestRank returns the smallest value with at least pct percent of the
// sorted values at or below it.
func nearestRank(sorted []int64, pct float64) int64 {
	rank := int(math.Ceil(pct / 100 * float64(len(sorted))))
	rank = min(max(rank, 1), len(sorted))
	return sorted[rank-1]
}
