package memvol

import "errors"

// Sentinel errors translated to WASI errno codes at the syscall boundary
// (internal/wasihost), mirroring the teacher's own fs.ErrNotExist /
// fs.ErrExist / syscall.EBADF mapping convention in its openFile helper.
var (
	ErrNotExist    = errors.New("memvol: no such file or directory")
	ErrExist       = errors.New("memvol: file exists")
	ErrNotDir      = errors.New("memvol: not a directory")
	ErrIsDir       = errors.New("memvol: is a directory")
	ErrNotEmpty    = errors.New("memvol: directory not empty")
	ErrNotCapable  = errors.New("memvol: path escapes root")
	ErrInvalid     = errors.New("memvol: invalid argument")
)
