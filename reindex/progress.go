package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports rebuild progress to a writer as a single
// carriage-return refreshed line.
type ProgressTracker struct {
	mu             sync.Mutex
	w              io.Writer
	label          string
	total          int
	done           int
	reportInterval int
	lastReported   int
	start          time.Time
	running        bool
}

// NewProgressTracker reports every reportInterval items out of total. A nil
// writer discards output.
func NewProgressTracker(w io.Writer, label string, total, reportInterval int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{w: w, label: label, total: total, reportInterval: reportInterval}
}

func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = time.Now()
	p.running = true
	p.done = 0
	p.lastReported = 0
}

// Add records delta more completed items.
func (p *ProgressTracker) Add(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.done = min(p.done+delta, p.total)
	if p.done-p.lastReported >= p.reportInterval {
		p.writeLine()
		p.lastReported = p.done
	}
}

// Finish prints the final line, marking every item done.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.done = p.total
	p.writeLine()
	fmt.Fprintln(p.w)
	p.running = false
}

// Elapsed is the time since Start, frozen at zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		return 0
	}
	return time.Since(p.start)
}

// writeLine must be called with mu held.
func (p *ProgressTracker) writeLine() {
	elapsed := time.Since(p.start)
	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}
	fmt.Fprintf(p.w, "\r%s: %d/%d (%.1f%%) - %.1f decisions/s", p.label, p.done, p.total, pct, rate)
}
