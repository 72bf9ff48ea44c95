package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress while a command walks a batch of
// items (rule files, signals, cases).
type ProgressReporter interface {
	Start(total int)
	Increment()
	Finish()
	Error(err error)
}

// stepProgress renders a labeled single-line progress bar. It is safe
// for concurrent increments.
type stepProgress struct {
	mu      sync.Mutex
	label   string
	total   int
	done    int
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a progress reporter labeled with the
// operation name. If w is nil, it defaults to os.Stderr so progress
// never interleaves with formatted report output on stdout.
func NewProgressReporter(w io.Writer, label string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &stepProgress{label: label, writer: w}
}

// Start begins a run over total items.
func (p *stepProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.started = time.Now()
	p.render()
}

// Increment records one completed item.
func (p *stepProgress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.render()
}

// Finish completes the bar and reports the elapsed time.
func (p *stepProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total == 0 {
		return
	}
	p.done = p.total
	p.render()
	fmt.Fprintf(p.writer, " in %s\n", time.Since(p.started).Round(time.Millisecond))
}

// Error reports an error without disturbing the counter.
func (p *stepProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ %s: %v\n", p.label, err)
}

func (p *stepProgress) render() {
	if p.total == 0 {
		return
	}

	barWidth := 24
	filled := barWidth * p.done / p.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(p.writer, "\r%s [%s] %d/%d", p.label, bar, p.done, p.total)
}
