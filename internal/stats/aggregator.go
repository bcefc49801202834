// Package stats aggregates per-worker counters from a data-plane pool
// into a single snapshot used by the control-plane and the dashboard.
package stats

import "github.com/jroosing/pbench/internal/dataplane"

// Snapshot is a point-in-time view of aggregate data-plane throughput.
type Snapshot struct {
	PacketsTotal uint64
	MaxLastSeq   uint64
}

// Aggregator reads a pool's worker state on demand; it holds no counters
// of its own.
type Aggregator struct {
	workers func() []*dataplane.WorkerState
}

// NewAggregator wraps a pool for aggregation.
func NewAggregator(pool *dataplane.Pool) *Aggregator {
	return &Aggregator{workers: pool.Workers}
}

// Snapshot sums packets and takes the max last-seq across all workers.
// Reads are unsynchronised with respect to the control-plane tick;
// counters are advisory (SPEC_FULL.md §5).
func (a *Aggregator) Snapshot() Snapshot {
	var s Snapshot
	for _, w := range a.workers() {
		s.PacketsTotal += w.Packets()
		if seq := w.LastSeq(); seq > s.MaxLastSeq {
			s.MaxLastSeq = seq
		}
	}
	return s
}
