package reconcile

import (
	"fmt"
	"sync"
)

// Summary aggregates outcome counts for a run.
type Summary struct {
	Total   int
	Updated int
	Skipped int
	Failed  int
}

func (s Summary) String() string {
	return fmt.Sprintf("total=%d updated=%d skipped=%d failed=%d", s.Total, s.Updated, s.Skipped, s.Failed)
}

// Reporter accumulates outcomes in processing order.
type Reporter struct {
	mu       sync.Mutex
	outcomes []Outcome
}

// NewReporter returns an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Add appends one record outcome.
func (r *Reporter) Add(outcome Outcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}

// Outcomes returns a copy of the outcomes recorded so far.
func (r *Reporter) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Summary counts the outcomes recorded so far.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := Summary{Total: len(r.outcomes)}
	for _, outcome := range r.outcomes {
		switch outcome.Status {
		case StatusUpdated:
			summary.Updated++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}
	return summary
}
