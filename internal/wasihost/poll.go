package wasihost

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

// subscription mirrors the 48-byte __wasi_subscription_t union: userdata
// u64 @0, tag u8 @8, then (padded to @16) either a clock record or an fd
// record, per spec.md §4.6's poll_oneoff requirements.
type subscription struct {
	userdata  uint64
	tag       uint8
	clockID   uint32
	timeout   uint64
	precision uint64
	flags     uint16
	fd        uint32
}

const (
	subscriptionSize         = 48
	eventSize                = 32
	subscriptionClockAbstime = uint16(1)
)

func registerPoll(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, inPtr, outPtr, nsubscriptions, resultNevents uint32) uint32 {
		return traced(h, wasip1.PollOneoffName, func() wasip1.Errno {
			return doPollOneoff(ctx, mod, h, inPtr, outPtr, nsubscriptions, resultNevents)
		})
	}).Export(wasip1.PollOneoffName)
}

// doPollOneoff supports the minimum spec.md §4.6 calls for: clock
// subscriptions (both relative and SUBSCRIPTION_CLOCK_ABSTIME) and fd_read
// subscriptions on stdin. Since this host's Reader abstraction has no
// non-consuming readiness probe, fd_read/fd_write subscriptions are always
// reported ready — actual suspension for stdin happens at fd_read itself
// (spec.md §5), which poll_oneoff callers fall through to right after this
// call returns. When clock subscriptions are present, the call first waits
// out the shortest clock deadline and then reports every subscription,
// clock and fd alike, as an event; with fd subscriptions only, it returns
// at once.
func doPollOneoff(ctx context.Context, mod api.Module, h *Host, inPtr, outPtr, n, resultNevents uint32) wasip1.Errno {
	if n == 0 {
		return wasip1.ErrnoInval
	}
	mem := mod.Memory()
	subs := make([]subscription, n)
	for i := uint32(0); i < n; i++ {
		s, errno := readSubscription(mem, inPtr+i*subscriptionSize)
		if errno != wasip1.ErrnoSuccess {
			return errno
		}
		subs[i] = s
	}

	if dur, ok := shortestClockDeadline(h, subs); ok {
		timer := time.NewTimer(dur)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return wasip1.ErrnoIntr
		}
	}

	cur := outPtr
	for _, s := range subs {
		if !writeEvent(mem, cur, s) {
			return wasip1.ErrnoFault
		}
		cur += eventSize
	}
	if !mem.WriteUint32Le(resultNevents, n) {
		return wasip1.ErrnoFault
	}
	return wasip1.ErrnoSuccess
}

func readSubscription(mem api.Memory, base uint32) (subscription, wasip1.Errno) {
	userdata, ok := mem.ReadUint64Le(base)
	if !ok {
		return subscription{}, wasip1.ErrnoFault
	}
	tag, ok := mem.ReadByte(base + 8)
	if !ok {
		return subscription{}, wasip1.ErrnoFault
	}
	s := subscription{userdata: userdata, tag: tag}
	switch tag {
	case wasip1.EventtypeClock:
		clockID, ok := mem.ReadUint32Le(base + 16)
		if !ok {
			return subscription{}, wasip1.ErrnoFault
		}
		timeout, ok := mem.ReadUint64Le(base + 24)
		if !ok {
			return subscription{}, wasip1.ErrnoFault
		}
		precision, ok := mem.ReadUint64Le(base + 32)
		if !ok {
			return subscription{}, wasip1.ErrnoFault
		}
		flags, ok := mem.ReadUint16Le(base + 40)
		if !ok {
			return subscription{}, wasip1.ErrnoFault
		}
		s.clockID, s.timeout, s.precision, s.flags = clockID, timeout, precision, flags
	case wasip1.EventtypeFdRead, wasip1.EventtypeFdWrite:
		fd, ok := mem.ReadUint32Le(base + 16)
		if !ok {
			return subscription{}, wasip1.ErrnoFault
		}
		s.fd = fd
	default:
		return subscription{}, wasip1.ErrnoInval
	}
	return s, wasip1.ErrnoSuccess
}

func shortestClockDeadline(h *Host, subs []subscription) (time.Duration, bool) {
	have := false
	var shortest time.Duration
	for _, s := range subs {
		if s.tag != wasip1.EventtypeClock {
			continue
		}
		d := clockDeadline(h, s)
		if !have || d < shortest {
			shortest, have = d, true
		}
	}
	return shortest, have
}

func clockDeadline(h *Host, s subscription) time.Duration {
	if s.flags&subscriptionClockAbstime != 0 {
		var now int64
		if s.clockID == wasip1.ClockIDMonotonic {
			now = h.Clock.Nanotime()
		} else {
			sec, nsec := h.Clock.Walltime()
			now = sec*1e9 + int64(nsec)
		}
		remaining := int64(s.timeout) - now
		if remaining < 0 {
			remaining = 0
		}
		return time.Duration(remaining)
	}
	return time.Duration(s.timeout)
}

func writeEvent(mem api.Memory, ptr uint32, s subscription) bool {
	if !mem.WriteUint64Le(ptr, s.userdata) {
		return false
	}
	if !mem.WriteUint16Le(ptr+8, uint16(wasip1.ErrnoSuccess)) {
		return false
	}
	if !mem.WriteByte(ptr+10, s.tag) {
		return false
	}
	for i := uint32(11); i < 16; i++ {
		if !mem.WriteByte(ptr+i, 0) {
			return false
		}
	}
	if s.tag != wasip1.EventtypeClock {
		if !mem.WriteUint64Le(ptr+16, 0) {
			return false
		}
		if !mem.WriteUint16Le(ptr+24, 0) {
			return false
		}
	}
	return true
}
