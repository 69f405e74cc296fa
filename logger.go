package wasifshost

import (
	"fmt"
	"io"

	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

// SyscallLogger is the trace hook Config.WithSyscallLog installs;
// exported so a caller can supply their own instead (e.g. to fold syscall
// traces into a structured logger of their choosing).
type SyscallLogger interface {
	LogSyscall(name string, errno wasip1.Errno, dur int64)
}

// textSyscallLogger is the teacher-idiomatic default: plain fmt.Fprintf
// over an io.Writer, matching the teacher's own dependency-free
// experimental/logging texture rather than pulling in a structured logger
// the rest of the pack never uses for this concern either (see
// SPEC_FULL.md's Ambient Stack / DESIGN.md).
type textSyscallLogger struct{ w io.Writer }

func (l *textSyscallLogger) LogSyscall(name string, errno wasip1.Errno, dur int64) {
	fmt.Fprintf(l.w, "%s => %s (%dns)\n", name, wasip1.ErrnoName(errno), dur)
}
