package wasihost

import (
	"context"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/handle"
	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
	"github.com/tetratelabs/wasi-fs-host/internal/openfiles"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1mem"
)

// registerPath wires the path_* family. Per spec.md §4.2, an absolute
// guest path (leading "/") is resolved against h.Preopen's longest-prefix
// find_rel_path rule regardless of dirfd; a relative path resolves against
// dirfd itself, the ordinary dirfd-relative convention every other path_*
// caller uses.
func registerPath(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, dirfd uint32, dirflags uint32, pathPtr, pathLen uint32, oflags uint16, rightsBase, rightsInheriting uint64, fdflags uint16, resultFd uint32) uint32 {
		return traced(h, wasip1.PathOpenName, func() wasip1.Errno {
			return doPathOpen(mod, h, dirfd, pathPtr, pathLen, oflags, rightsBase, rightsInheriting, fdflags, resultFd)
		})
	}).Export(wasip1.PathOpenName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, dirfd, pathPtr, pathLen uint32) uint32 {
		return traced(h, wasip1.PathCreateDirectoryName, func() wasip1.Errno {
			vol, node, path, errno := resolveDirAndPath(mod, h, dirfd, pathPtr, pathLen)
			if errno != wasip1.ErrnoSuccess {
				return errno
			}
			if err := vol.Mkdir(node, path, false); err != nil {
				return errnoOf(err)
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.PathCreateDirectoryName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, dirfd, pathPtr, pathLen uint32) uint32 {
		return traced(h, wasip1.PathRemoveDirectoryName, func() wasip1.Errno {
			vol, node, path, errno := resolveDirAndPath(mod, h, dirfd, pathPtr, pathLen)
			if errno != wasip1.ErrnoSuccess {
				return errno
			}
			if err := vol.Rmdir(node, path); err != nil {
				return errnoOf(err)
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.PathRemoveDirectoryName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, dirfd, pathPtr, pathLen uint32) uint32 {
		return traced(h, wasip1.PathUnlinkFileName, func() wasip1.Errno {
			vol, node, path, errno := resolveDirAndPath(mod, h, dirfd, pathPtr, pathLen)
			if errno != wasip1.ErrnoSuccess {
				return errno
			}
			if err := vol.Unlink(node, path); err != nil {
				return errnoOf(err)
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.PathUnlinkFileName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, oldFd, oldPathPtr, oldPathLen, newFd, newPathPtr, newPathLen uint32) uint32 {
		return traced(h, wasip1.PathRenameName, func() wasip1.Errno {
			oldVol, oldNode, oldPath, errno := resolveDirAndPath(mod, h, oldFd, oldPathPtr, oldPathLen)
			if errno != wasip1.ErrnoSuccess {
				return errno
			}
			newVol, newNode, newPath, errno := resolveDirAndPath(mod, h, newFd, newPathPtr, newPathLen)
			if errno != wasip1.ErrnoSuccess {
				return errno
			}
			if oldVol != newVol {
				return wasip1.ErrnoXdev
			}
			if rerr := oldVol.Rename(oldNode, oldPath, newNode, newPath); rerr != nil {
				return errnoOf(rerr)
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.PathRenameName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, dirfd, pathPtr, pathLen uint32, resultFilestat uint32) uint32 {
		return traced(h, wasip1.PathFilestatGetName, func() wasip1.Errno {
			vol, node, path, errno := resolveDirAndPath(mod, h, dirfd, pathPtr, pathLen)
			if errno != wasip1.ErrnoSuccess {
				return errno
			}
			st, err := vol.StatFrom(node, path)
			if err != nil {
				return errnoOf(err)
			}
			if !wasip1mem.WriteFilestat(mod.Memory(), resultFilestat, st) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.PathFilestatGetName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, dirfd uint32, pathPtr, pathLen uint32, atim, mtim int64, fstflags uint16) uint32 {
		return traced(h, wasip1.PathFilestatSetTimesName, func() wasip1.Errno {
			vol, dirNode, path, errno := resolveDirAndPath(mod, h, dirfd, pathPtr, pathLen)
			if errno != wasip1.ErrnoSuccess {
				return errno
			}
			node, err := vol.Resolve(dirNode, path)
			if err != nil {
				return errnoOf(err)
			}
			applyTimes(vol, node, atim, mtim, fstflags)
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.PathFilestatSetTimesName)
}

// resolveDirAndPath reads the guest's path argument and resolves it to a
// (volume, base node, path-relative-to-base-node) triple: an absolute path
// is resolved via h.Preopen's find_rel_path longest-prefix match (per
// spec.md §4.2), independent of dirfd; a relative path resolves against
// dirfd, which must already be an open directory descriptor. Every path_*
// syscall, path_open included, shares this preamble.
func resolveDirAndPath(mod api.Module, h *Host, dirfd uint32, pathPtr, pathLen uint32) (*memvol.Volume, *memvol.Node, string, wasip1.Errno) {
	path, err := wasip1mem.ReadString(mod.Memory(), pathPtr, pathLen)
	if err != nil {
		return nil, nil, "", wasip1.ErrnoFault
	}
	if strings.HasPrefix(path, "/") {
		pre, rel, ok := h.Preopen.Resolve(path)
		if !ok {
			return nil, nil, "", wasip1.ErrnoNotcapable
		}
		return pre.Volume, pre.Root, rel, wasip1.ErrnoSuccess
	}
	e, ok := h.FDs.Lookup(dirfd)
	if !ok || e.Kind != openfiles.KindDir {
		return nil, nil, "", wasip1.ErrnoBadf
	}
	return e.Volume, e.Node, path, wasip1.ErrnoSuccess
}

func doPathOpen(mod api.Module, h *Host, dirfd uint32, pathPtr, pathLen uint32, oflags uint16, rightsBase, rightsInheriting uint64, fdflags uint16, resultFd uint32) wasip1.Errno {
	vol, dirNode, path, errno := resolveDirAndPath(mod, h, dirfd, pathPtr, pathLen)
	if errno != wasip1.ErrnoSuccess {
		return errno
	}

	node, rerr := vol.Resolve(dirNode, path)
	switch {
	case rerr == memvol.ErrNotCapable:
		return wasip1.ErrnoNotcapable
	case rerr == memvol.ErrNotExist:
		if oflags&wasip1.OflagCreat == 0 {
			return wasip1.ErrnoNoent
		}
		parent, name, _, perr := vol.ResolveParent(dirNode, path)
		if perr != nil && perr != memvol.ErrNotExist {
			return errnoOf(perr)
		}
		if parent == nil {
			return wasip1.ErrnoNoent
		}
		created := vol.CreateFile(parent, name, nil)
		node = created
	case rerr != nil:
		return errnoOf(rerr)
	default:
		if oflags&wasip1.OflagExcl != 0 {
			return wasip1.ErrnoExist
		}
	}

	if oflags&wasip1.OflagDirectory != 0 && !node.IsDir() {
		return wasip1.ErrnoNotdir
	}
	if node.IsDir() {
		fd := h.FDs.OpenDir(node, vol, "")
		if !mod.Memory().WriteUint32Le(resultFd, fd) {
			return wasip1.ErrnoFault
		}
		return wasip1.ErrnoSuccess
	}

	if oflags&wasip1.OflagTrunc != 0 {
		if err := vol.TruncateNode(node, 0); err != nil {
			return errnoOf(err)
		}
	}

	fd := h.FDs.OpenFile(node, vol, fdflags, rightsBase, rightsInheriting)
	if fdflags&wasip1.FdflagAppend != 0 {
		entry, _ := h.FDs.Lookup(fd)
		stream, serr := (handle.FileHandle{Volume: vol, Node: node}).CreateWritable(true)
		if serr != nil {
			return errnoOf(serr)
		}
		entry.Stream = stream
		entry.Cursor = stream.Size()
	}
	if !mod.Memory().WriteUint32Le(resultFd, fd) {
		return wasip1.ErrnoFault
	}
	return wasip1.ErrnoSuccess
}
