// Package profiler - Operation timing statistics for annotator runs.
package profiler

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxSamples is the number of recent durations kept per operation.
const DefaultMaxSamples = 600

// Stats is a snapshot of one operation's timings.
type Stats struct {
	// Name is the operation name.
	Name string `json:"name"`
	// Count is the number of recorded runs, including evicted samples.
	Count int64 `json:"count"`
	// Failures is the number of runs that returned an error.
	Failures int64 `json:"failures"`
	// Min is the fastest run.
	Min time.Duration `json:"min"`
	// Max is the slowest run.
	Max time.Duration `json:"max"`
	// Mean is the average over the retained samples.
	Mean time.Duration `json:"mean"`
	// P95 is the 95th percentile over the retained samples.
	P95 time.Duration `json:"p95"`
}

// tracker tracks operation timing statistics.
type tracker struct {
	durations []time.Duration
	total     time.Duration
	min       time.Duration
	max       time.Duration
	count     int64
	failures  int64
}

// Timings records durations per operation name. It is safe for concurrent use.
type Timings struct {
	mu         sync.RWMutex
	maxSamples int
	operations map[string]*tracker
}

// NewTimings creates a tracker keeping up to maxSamples recent durations per
// operation. A non-positive maxSamples selects DefaultMaxSamples.
func NewTimings(maxSamples int) *Timings {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Timings{
		maxSamples: maxSamples,
		operations: make(map[string]*tracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - func(error): Call when the operation completes, with its error.
func (t *Timings) StartOperation(name string) func(error) {
	start := time.Now()
	return func(err error) {
		t.Record(name, time.Since(start), err)
	}
}

// Record adds one run of name.
func (t *Timings) Record(name string, d time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.operations[name]
	if !ok {
		tr = &tracker{min: d, max: d}
		t.operations[name] = tr
	}

	tr.count++
	if err != nil {
		tr.failures++
	}
	tr.durations = append(tr.durations, d)
	tr.total += d
	if len(tr.durations) > t.maxSamples {
		tr.total -= tr.durations[0]
		tr.durations = tr.durations[1:]
	}
	tr.min = min(tr.min, d)
	tr.max = max(tr.max, d)
}

// Snapshot returns the statistics of every operation, sorted by name.
func (t *Timings) Snapshot() []Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := make([]Stats, 0, len(t.operations))
	for name, tr := range t.operations {
		s := Stats{
			Name:     name,
			Count:    tr.count,
			Failures: tr.failures,
			Min:      tr.min,
			Max:      tr.max,
		}
		if n := len(tr.durations); n > 0 {
			s.Mean = tr.total / time.Duration(n)
			sorted := append([]time.Duration(nil), tr.durations...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
			s.P95 = sorted[(n*95+99)/100-1]
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Report logs one line per operation.
func (t *Timings) Report(log logrus.FieldLogger) {
	for _, s := range t.Snapshot() {
		log.WithFields(logrus.Fields{
			"operation": s.Name,
			"count":     s.Count,
			"failures":  s.Failures,
			"min":       s.Min,
			"mean":      s.Mean,
			"p95":       s.P95,
			"max":       s.Max,
		}).Info("timing summary")
	}
}
