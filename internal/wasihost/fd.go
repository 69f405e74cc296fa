package wasihost

import (
	"context"
	"errors"
	"io"

	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/handle"
	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
	"github.com/tetratelabs/wasi-fs-host/internal/openfiles"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1mem"
)

func registerFd(b Builder, h *Host) {
	registerFdStat(b, h)
	registerFdIO(b, h)
	registerFdSeek(b, h)
	registerFdClose(b, h)
}

func registerFdStat(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd, resultFdstat uint32) uint32 {
		return traced(h, wasip1.FdFdstatGetName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok {
				return wasip1.ErrnoBadf
			}
			filetype, flags, rightsBase, rightsInheriting := fdstatOf(e)
			if !wasip1mem.WriteFdstat(mod.Memory(), resultFdstat, filetype, flags, rightsBase, rightsInheriting) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdFdstatGetName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32, flags uint16) uint32 {
		return traced(h, wasip1.FdFdstatSetFlagsName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok || e.Kind != openfiles.KindFile {
				return wasip1.ErrnoBadf
			}
			e.Flags = flags
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdFdstatSetFlagsName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd, resultFilestat uint32) uint32 {
		return traced(h, wasip1.FdFilestatGetName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok {
				return wasip1.ErrnoBadf
			}
			st, err := nodeStat(e)
			if err != nil {
				return errnoOf(err)
			}
			if !wasip1mem.WriteFilestat(mod.Memory(), resultFilestat, st) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdFilestatGetName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32, size uint64) uint32 {
		return traced(h, wasip1.FdFilestatSetSizeName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok || e.Kind != openfiles.KindFile {
				return wasip1.ErrnoBadf
			}
			if e.Stream != nil {
				if err := e.Stream.Truncate(size); err != nil {
					return errnoOf(err)
				}
				return wasip1.ErrnoSuccess
			}
			if err := e.Volume.TruncateNode(e.Node, size); err != nil {
				return errnoOf(err)
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdFilestatSetSizeName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32, atim, mtim int64, fstflags uint16) uint32 {
		return traced(h, wasip1.FdFilestatSetTimesName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok {
				return wasip1.ErrnoBadf
			}
			applyTimes(e.Volume, e.Node, atim, mtim, fstflags)
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdFilestatSetTimesName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32) uint32 {
		return traced(h, wasip1.FdSyncName, func() wasip1.Errno {
			if _, ok := h.FDs.Lookup(fd); !ok {
				return wasip1.ErrnoBadf
			}
			return wasip1.ErrnoSuccess // in-memory store: nothing to flush
		})
	}).Export(wasip1.FdSyncName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32) uint32 {
		return traced(h, wasip1.FdDatasyncName, func() wasip1.Errno {
			if _, ok := h.FDs.Lookup(fd); !ok {
				return wasip1.ErrnoBadf
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdDatasyncName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32, offset int64, length int64, advice uint8) uint32 {
		return traced(h, wasip1.FdAdviseName, func() wasip1.Errno {
			if _, ok := h.FDs.Lookup(fd); !ok {
				return wasip1.ErrnoBadf
			}
			return wasip1.ErrnoSuccess // no meaningful semantics on an in-memory store; Open Question 3
		})
	}).Export(wasip1.FdAdviseName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32, offset int64, length int64) uint32 {
		return traced(h, wasip1.FdAllocateName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok {
				return wasip1.ErrnoBadf
			}
			if e.Kind != openfiles.KindFile {
				return wasip1.ErrnoBadf
			}
			want := uint64(offset + length)
			cur, serr := currentSize(e)
			if serr != nil {
				return errnoOf(serr)
			}
			if want > cur {
				if e.Stream != nil {
					_ = e.Stream.Truncate(want)
				} else {
					_ = e.Volume.TruncateNode(e.Node, want)
				}
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdAllocateName)
}

func fdstatOf(e *openfiles.Entry) (filetype uint8, flags uint16, rightsBase, rightsInheriting uint64) {
	switch e.Kind {
	case openfiles.KindDir:
		return wasip1.FiletypeDirectory, 0, e.RightsBase, e.RightsInheriting
	case openfiles.KindStdio:
		return wasip1.FiletypeCharacterDevice, 0, 0, 0
	default:
		return wasip1.FiletypeRegularFile, e.Flags, e.RightsBase, e.RightsInheriting
	}
}

func nodeStat(e *openfiles.Entry) (memvol.Stat, error) {
	if e.Kind == openfiles.KindStdio {
		return memvol.Stat{Kind: memvol.KindFile}, nil
	}
	st, err := e.Volume.StatFrom(e.Node, "")
	if err != nil {
		return st, err
	}
	if e.Stream != nil {
		st.Size = e.Stream.Size()
	}
	return st, nil
}

// currentContents returns the bytes a read on e should observe: the
// writable stream's buffered, not-yet-published contents while one is
// open (fd_write never touches the node until fd_close/stream publish),
// otherwise the node's own contents.
func currentContents(e *openfiles.Entry) ([]byte, error) {
	if e.Stream != nil {
		return e.Stream.Bytes(), nil
	}
	return e.Volume.ReadFile(e.Node, "")
}

// currentSize mirrors currentContents for callers that only need the
// length (fd_seek's whence=END base).
func currentSize(e *openfiles.Entry) (uint64, error) {
	if e.Stream != nil {
		return e.Stream.Size(), nil
	}
	st, err := e.Volume.StatFrom(e.Node, "")
	if err != nil {
		return 0, err
	}
	return st.Size, nil
}

// applyTimes shares the Fstflags interpretation between
// fd_filestat_set_times and path_filestat_set_times.
func applyTimes(vol *memvol.Volume, node *memvol.Node, atim, mtim int64, fstflags uint16) {
	a, m := int64(-1), int64(-1)
	if fstflags&wasip1.FstflagAtimNow != 0 {
		a = vol.Now()
	} else if fstflags&wasip1.FstflagAtim != 0 {
		a = atim
	}
	if fstflags&wasip1.FstflagMtimNow != 0 {
		m = vol.Now()
	} else if fstflags&wasip1.FstflagMtim != 0 {
		m = mtim
	}
	vol.SetTimes(node, a, m)
}

func registerFdIO(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd, iovs, iovsLen, resultSize uint32) uint32 {
		return traced(h, wasip1.FdReadName, func() wasip1.Errno {
			return doRead(ctx, h, mod, fd, iovs, iovsLen, resultSize, true, 0)
		})
	}).Export(wasip1.FdReadName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd, iovs, iovsLen uint32, offset uint64, resultSize uint32) uint32 {
		return traced(h, wasip1.FdPreadName, func() wasip1.Errno {
			return doRead(ctx, h, mod, fd, iovs, iovsLen, resultSize, false, offset)
		})
	}).Export(wasip1.FdPreadName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd, iovs, iovsLen, resultSize uint32) uint32 {
		return traced(h, wasip1.FdWriteName, func() wasip1.Errno {
			return doWrite(h, mod, fd, iovs, iovsLen, resultSize, true, 0)
		})
	}).Export(wasip1.FdWriteName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd, iovs, iovsLen uint32, offset uint64, resultSize uint32) uint32 {
		return traced(h, wasip1.FdPwriteName, func() wasip1.Errno {
			return doWrite(h, mod, fd, iovs, iovsLen, resultSize, false, offset)
		})
	}).Export(wasip1.FdPwriteName)
}

func doRead(ctx context.Context, h *Host, mod api.Module, fd, iovs, iovsLen, resultSize uint32, advanceCursor bool, at uint64) wasip1.Errno {
	e, ok := h.FDs.Lookup(fd)
	if !ok {
		return wasip1.ErrnoBadf
	}
	iovecs, err := wasip1mem.ReadIovecs(mod.Memory(), iovs, iovsLen)
	if err != nil {
		return wasip1.ErrnoFault
	}

	if e.Kind == openfiles.KindStdio && e.Stdio == openfiles.StdioIn {
		return readStdin(ctx, h, mod, iovecs, resultSize)
	}
	if e.Kind != openfiles.KindFile {
		return wasip1.ErrnoBadf
	}

	data, rerr := currentContents(e)
	if rerr != nil {
		return errnoOf(rerr)
	}
	pos := e.Cursor
	if !advanceCursor {
		pos = at
	}
	n := scatter(mod.Memory(), iovecs, data, pos)
	if advanceCursor {
		e.Cursor += uint64(n)
	}
	if !mod.Memory().WriteUint32Le(resultSize, uint32(n)) {
		return wasip1.ErrnoFault
	}
	return wasip1.ErrnoSuccess
}

func scatter(mem api.Memory, iovecs []wasip1mem.Iovec, data []byte, pos uint64) int {
	total := 0
	if pos >= uint64(len(data)) {
		return 0
	}
	remaining := data[pos:]
	for _, iov := range iovecs {
		if len(remaining) == 0 {
			break
		}
		n := int(iov.Len)
		if n > len(remaining) {
			n = len(remaining)
		}
		mem.Write(iov.Buf, remaining[:n])
		remaining = remaining[n:]
		total += n
	}
	return total
}

func readStdin(ctx context.Context, h *Host, mod api.Module, iovecs []wasip1mem.Iovec, resultSize uint32) wasip1.Errno {
	if len(iovecs) == 0 {
		mod.Memory().WriteUint32Le(resultSize, 0)
		return wasip1.ErrnoSuccess
	}
	buf := make([]byte, iovecs[0].Len)
	n, err := h.Stdin.Read(ctx, buf)
	if err != nil && err != io.EOF {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return wasip1.ErrnoIntr
		}
		return wasip1.ErrnoIo
	}
	if !mod.Memory().Write(iovecs[0].Buf, buf[:n]) {
		return wasip1.ErrnoFault
	}
	if !mod.Memory().WriteUint32Le(resultSize, uint32(n)) {
		return wasip1.ErrnoFault
	}
	return wasip1.ErrnoSuccess
}

func doWrite(h *Host, mod api.Module, fd, iovs, iovsLen, resultSize uint32, advanceCursor bool, at uint64) wasip1.Errno {
	e, ok := h.FDs.Lookup(fd)
	if !ok {
		return wasip1.ErrnoBadf
	}
	iovecs, err := wasip1mem.ReadIovecs(mod.Memory(), iovs, iovsLen)
	if err != nil {
		return wasip1.ErrnoFault
	}
	gathered := gather(mod.Memory(), iovecs)

	if e.Kind == openfiles.KindStdio {
		w := h.Stdout
		if e.Stdio == openfiles.StdioErr {
			w = h.Stderr
		}
		n, werr := w.Write(gathered)
		if werr != nil {
			return wasip1.ErrnoIo
		}
		if !mod.Memory().WriteUint32Le(resultSize, uint32(n)) {
			return wasip1.ErrnoFault
		}
		return wasip1.ErrnoSuccess
	}

	if e.Kind != openfiles.KindFile {
		return wasip1.ErrnoBadf
	}
	if e.Stream == nil {
		stream, serr := (handle.FileHandle{Volume: e.Volume, Node: e.Node}).CreateWritable(true)
		if serr != nil {
			return errnoOf(serr)
		}
		e.Stream = stream
	}

	pos := e.Cursor
	if e.Flags&wasip1.FdflagAppend != 0 {
		pos = e.Stream.Size()
	} else if !advanceCursor {
		pos = at
	}
	posCopy := pos
	n, werr := e.Stream.Write(gathered, &posCopy)
	if werr != nil {
		return errnoOf(werr)
	}
	if advanceCursor {
		e.Cursor = pos + uint64(n)
	}
	if !mod.Memory().WriteUint32Le(resultSize, uint32(n)) {
		return wasip1.ErrnoFault
	}
	return wasip1.ErrnoSuccess
}

func gather(mem api.Memory, iovecs []wasip1mem.Iovec) []byte {
	var out []byte
	for _, iov := range iovecs {
		b, ok := mem.Read(iov.Buf, iov.Len)
		if !ok {
			continue
		}
		out = append(out, b...)
	}
	return out
}

func registerFdSeek(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32, offset int64, whence uint8, resultCursor uint32) uint32 {
		return traced(h, wasip1.FdSeekName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok || e.Kind != openfiles.KindFile {
				return wasip1.ErrnoBadf
			}
			var base int64
			switch whence {
			case wasip1.WhenceSet:
				base = 0
			case wasip1.WhenceCur:
				base = int64(e.Cursor)
			case wasip1.WhenceEnd:
				size, serr := currentSize(e)
				if serr != nil {
					return errnoOf(serr)
				}
				base = int64(size)
			default:
				return wasip1.ErrnoInval
			}
			next := base + offset
			if next < 0 {
				return wasip1.ErrnoInval
			}
			e.Cursor = uint64(next)
			if !mod.Memory().WriteUint64Le(resultCursor, e.Cursor) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdSeekName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd, resultCursor uint32) uint32 {
		return traced(h, wasip1.FdTellName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok || e.Kind != openfiles.KindFile {
				return wasip1.ErrnoBadf
			}
			if !mod.Memory().WriteUint64Le(resultCursor, e.Cursor) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdTellName)
}

func registerFdClose(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32) uint32 {
		return traced(h, wasip1.FdCloseName, func() wasip1.Errno {
			if err := h.FDs.CloseFile(fd); err != nil {
				return errnoOf(err)
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdCloseName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, from, to uint32) uint32 {
		return traced(h, wasip1.FdRenumberName, func() wasip1.Errno {
			if err := h.FDs.Renumber(from, to); err != nil {
				return errnoOf(err)
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdRenumberName)
}
