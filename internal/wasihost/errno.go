package wasihost

import (
	"github.com/tetratelabs/wasi-fs-host/internal/handle"
	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
	"github.com/tetratelabs/wasi-fs-host/internal/openfiles"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

// errnoOf maps an internal Go error from memvol/handle/openfiles to the
// WASI errno the dispatcher returns, per spec.md §7's propagation policy
// (volume errors are translated at the syscall boundary; they never
// escape as host errors), mirroring the teacher's own openFile() mapping
// in imports/wasi_snapshot_preview1/fs.go.
func errnoOf(err error) wasip1.Errno {
	if err == nil {
		return wasip1.ErrnoSuccess
	}
	if errno, ok := openfiles.Errno(err); ok {
		return errno
	}
	switch err {
	case memvol.ErrNotExist:
		return wasip1.ErrnoNoent
	case memvol.ErrExist:
		return wasip1.ErrnoExist
	case memvol.ErrNotDir:
		return wasip1.ErrnoNotdir
	case memvol.ErrIsDir:
		return wasip1.ErrnoIsdir
	case memvol.ErrNotEmpty:
		return wasip1.ErrnoNotempty
	case memvol.ErrNotCapable:
		return wasip1.ErrnoNotcapable
	case memvol.ErrInvalid:
		return wasip1.ErrnoInval
	case handle.ErrStreamClosed:
		return wasip1.ErrnoBadf
	default:
		return wasip1.ErrnoIo
	}
}
