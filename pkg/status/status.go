package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/minazuki-dev/zhconv/pkg/engine"
)

// 🎨 console colors per outcome
var (
	processedColor = color.New(color.FgGreen)
	skippedColor   = color.New(color.FgYellow)
	failedColor    = color.New(color.FgRed, color.Bold)
)

// Failure pairs a path with the error that sank it
type Failure struct {
	Path string
	Err  error
}

// Summary aggregates run-level counts. It is the only mutable state
// shared by every worker, so all updates go through the Reporter's
// lock.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	Failures  []Failure
}

// Ok reports whether the run completed without failures
func (s Summary) Ok() bool {
	return s.Failed == 0
}

// 📊 Reporter prints one line per outcome as it lands and keeps the
// running totals. Safe for concurrent use.
type Reporter struct {
	mu      sync.Mutex
	console io.Writer
	total   int
	seen    int
	summary Summary
}

// NewReporter creates a Reporter writing console lines to w
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{console: w}
}

// Start records the total for progress display
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	r.seen = 0
}

// Record folds one outcome into the summary and prints its line
func (r *Reporter) Record(outcome engine.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seen++
	prefix := fmt.Sprintf("[%d/%d] ", r.seen, r.total)

	switch outcome.Status {
	case engine.StatusProcessed:
		r.summary.Processed++
		line := fmt.Sprintf("✅ %s → %s", outcome.Path, outcome.OutputPath)
		if outcome.Reason != "" {
			line += fmt.Sprintf(" (%s)", outcome.Reason)
		}
		fmt.Fprintln(r.console, prefix+processedColor.Sprint(line))
	case engine.StatusSkipped:
		r.summary.Skipped++
		fmt.Fprintln(r.console, prefix+skippedColor.Sprintf("⏭️  %s (%s)", outcome.Path, outcome.Reason))
	case engine.StatusFailed:
		r.summary.Failed++
		r.summary.Failures = append(r.summary.Failures, Failure{Path: outcome.Path, Err: outcome.Err})
		fmt.Fprintln(r.console, prefix+failedColor.Sprintf("❌ %s: %v", outcome.Path, outcome.Err))
	}
}

// Summary returns a copy of the aggregated counts
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.summary
	out.Failures = append([]Failure(nil), r.summary.Failures...)
	return out
}

// Finish prints the run summary. Every failed path is listed in full,
// never truncated.
func (r *Reporter) Finish() {
	s := r.Summary()

	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.console, "\n%d processed, %d skipped, %d failed\n", s.Processed, s.Skipped, s.Failed)
	if len(s.Failures) > 0 {
		fmt.Fprintln(r.console, "\nfailed files:")
		for _, f := range s.Failures {
			fmt.Fprintln(r.console, failedColor.Sprintf("  %s: %v", f.Path, f.Err))
		}
	}
}
