package wasihost

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

func registerClock(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, id uint32, resultResolution uint32) uint32 {
		var errno wasip1.Errno
		var res int64
		switch id {
		case wasip1.ClockIDRealtime:
			res = h.Clock.WalltimeResolution()
		case wasip1.ClockIDMonotonic:
			res = h.Clock.NanotimeResolution()
		default:
			errno = wasip1.ErrnoInval
		}
		return traced(h, wasip1.ClockResGetName, func() wasip1.Errno {
			if errno != wasip1.ErrnoSuccess {
				return errno
			}
			if !mod.Memory().WriteUint64Le(resultResolution, uint64(res)) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.ClockResGetName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, id uint32, precision uint64, resultTimestamp uint32) uint32 {
		return traced(h, wasip1.ClockTimeGetName, func() wasip1.Errno {
			var ts int64
			switch id {
			case wasip1.ClockIDRealtime:
				sec, nsec := h.Clock.Walltime()
				ts = sec*time.Second.Nanoseconds() + int64(nsec)
			case wasip1.ClockIDMonotonic:
				ts = h.Clock.Nanotime()
			default:
				return wasip1.ErrnoInval
			}
			if !mod.Memory().WriteUint64Le(resultTimestamp, uint64(ts)) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.ClockTimeGetName)
}
