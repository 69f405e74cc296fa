package wasihost

import (
	"time"

	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

// traced runs fn and, if h.Logger is set, reports the syscall name, the
// resulting errno, and its duration — the opt-in per-syscall trace of
// SPEC_FULL.md's Ambient Stack section.
func traced(h *Host, name string, fn func() wasip1.Errno) wasip1.Errno {
	if h.Logger == nil {
		return fn()
	}
	start := time.Now()
	errno := fn()
	h.Logger.LogSyscall(name, errno, int64(time.Since(start)))
	return errno
}
