package wasihost

import (
	"context"
	"runtime"

	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

// registerSched wires sched_yield as a real cooperative yield plus a
// cancellation check, rather than the teacher's own no-op stub: spec.md
// §5 names sched_yield as one of the suspension points a pending
// cancellation is observed at.
func registerSched(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context) uint32 {
		return uint32(traced(h, wasip1.SchedYieldName, func() wasip1.Errno {
			select {
			case <-ctx.Done():
				return wasip1.ErrnoIntr
			default:
			}
			runtime.Gosched()
			return wasip1.ErrnoSuccess
		}))
	}).Export(wasip1.SchedYieldName)
}
