package export

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nvr-ai/go-cityscapes/diagnostics"
	"github.com/nvr-ai/go-cityscapes/split"
)

// Summary reports the outcome of a run.
type Summary struct {
	// RunID identifies the run in logs.
	RunID string
	// Project is the exported project name.
	Project string
	// Datasets is the number of datasets visited.
	Datasets int
	// Converted counts images whose ground truth was fully written.
	Converted int
	// Failed counts skipped images.
	Failed int
	// Splits counts images per assigned split, failed ones included.
	Splits map[split.Split]int
	// Warnings counts non-fatal findings per kind.
	Warnings map[diagnostics.Kind]int
	// Duration is the wall time of the run.
	Duration time.Duration
}

// LogValue implements slog.LogValuer.
func (s *Summary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("run_id", s.RunID),
		slog.String("project", s.Project),
		slog.Int("datasets", s.Datasets),
		slog.Int("converted", s.Converted),
		slog.Int("failed", s.Failed),
		slog.Duration("duration", s.Duration),
	}
	for _, sp := range split.All {
		attrs = append(attrs, slog.Int(sp.String(), s.Splits[sp]))
	}
	for _, k := range diagnostics.Kinds {
		if n := s.Warnings[k]; n > 0 {
			attrs = append(attrs, slog.Int(string(k), n))
		}
	}
	return slog.GroupValue(attrs...)
}

// tally collects the per-image outcomes reported by concurrent workers.
type tally struct {
	mu      sync.Mutex
	summary *Summary
}

func newTally(runID string) *tally {
	return &tally{summary: &Summary{
		RunID:    runID,
		Splits:   make(map[split.Split]int),
		Warnings: make(map[diagnostics.Kind]int),
	}}
}

func (t *tally) converted() {
	t.mu.Lock()
	t.summary.Converted++
	t.mu.Unlock()
}

func (t *tally) failed() {
	t.mu.Lock()
	t.summary.Failed++
	t.mu.Unlock()
}

func (t *tally) warnings(ws []diagnostics.Warning) {
	if len(ws) == 0 {
		return
	}
	t.mu.Lock()
	for k, n := range diagnostics.Count(ws) {
		t.summary.Warnings[k] += n
	}
	t.mu.Unlock()
}

func (t *tally) splits(counts map[split.Split]int) {
	t.mu.Lock()
	for s, n := range counts {
		t.summary.Splits[s] += n
	}
	t.mu.Unlock()
}
