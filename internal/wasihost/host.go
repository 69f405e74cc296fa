// Package wasihost implements the WASI preview-1 syscall table against
// internal/memvol and internal/openfiles, registered against a real
// wazero.Runtime via its public HostModuleBuilder API — see DESIGN.md for
// why this repo consumes wazero as a dependency rather than vendoring its
// engine.
package wasihost

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/handle"
	"github.com/tetratelabs/wasi-fs-host/internal/openfiles"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

// SyscallLogger receives one call per dispatched syscall when tracing is
// enabled (Config.WithSyscallLog). Kept as a narrow interface, matching
// the teacher's own minimal experimental/logging.Writer shape rather than
// pulling in a structured-logging dependency the teacher itself never
// uses for this concern — see SPEC_FULL.md's Ambient Stack.
type SyscallLogger interface {
	LogSyscall(name string, errno wasip1.Errno, dur int64)
}

// Host holds everything a dispatched syscall needs: the fd table, the
// args/env vectors, the stdio streams, and the suspension/cancellation
// hooks a handful of syscalls use.
type Host struct {
	FDs *openfiles.Table
	// Preopen resolves an absolute guest path to its longest-matching
	// preopen, per spec.md §4.2's find_rel_path; path.go's path_* family
	// consults it whenever the guest passes an absolute path instead of a
	// dirfd-relative one.
	Preopen *handle.Preopens

	Args []string
	Env  map[string]string

	Stdin  Reader
	Stdout Writer
	Stderr Writer

	Clock Clock

	Logger SyscallLogger
}

// Reader is satisfied by the embedder's stdin; Read may suspend the
// calling goroutine (run.go's suspendingReader parks it),
// returning 0 bytes with no error to mean "nothing available for this
// call" per spec.md §6's "an empty return signals EOF for the current
// call only" — true end of input is signaled the ordinary io.EOF way.
type Reader interface {
	Read(ctx context.Context, p []byte) (n int, err error)
}

// Writer is satisfied by stdout/stderr.
type Writer interface {
	Write(p []byte) (n int, err error)
}

// Clock supplies wall and monotonic time, and a resolution for each,
// matching spec.md §4.6's clock_res_get/clock_time_get requirements.
type Clock interface {
	Walltime() (sec int64, nsec int32)
	WalltimeResolution() int64
	Nanotime() int64
	NanotimeResolution() int64
}

// Builder is the subset of wazero.HostModuleBuilder each register*
// function in this package needs.
type Builder = wazero.HostModuleBuilder

// Instantiate registers every WASI preview-1 import this host implements
// against r, backed by h, under the wasi_snapshot_preview1 namespace, and
// instantiates the resulting host module.
func Instantiate(ctx context.Context, r wazero.Runtime, h *Host) (api.Module, error) {
	b := r.NewHostModuleBuilder("wasi_snapshot_preview1")
	registerArgsEnviron(b, h)
	registerClock(b, h)
	registerFd(b, h)
	registerDir(b, h)
	registerPath(b, h)
	registerPoll(b, h)
	registerProc(b, h)
	registerRandom(b, h)
	registerSched(b, h)
	registerUnsupported(b, h)
	return b.Instantiate(ctx)
}
