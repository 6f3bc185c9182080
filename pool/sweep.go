package pool

import (
	"time"

	"github.com/rubo77/ddhcpd/block"
)

// Pending is the subset of cluster.Bridge's surface the periodic tick
// needs; kept minimal here so this package doesn't import cluster.
type Pending interface {
	Sweep(now time.Time)
}

// Sweep is the per-tick orchestration point added in SPEC_FULL.md §8: it
// drives lease.Table.CheckTimeouts for every OURS block that has been
// materialized, and expires stale peer-forwarded requests through the
// renewal bridge. The original left this orchestration to its main
// event loop; here it has a single named entry point the loop calls
// once per tick (spec.md §5).
func (p *Pool) Sweep(view *block.View, pending Pending, now time.Time) {
	for _, b := range view.OursBlocks() {
		if b.Leases != nil {
			b.Leases.CheckTimeouts(now)
		}
	}
	if pending != nil {
		pending.Sweep(now)
	}
}
