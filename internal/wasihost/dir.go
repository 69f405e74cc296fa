package wasihost

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
	"github.com/tetratelabs/wasi-fs-host/internal/openfiles"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1mem"
)

func registerDir(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd, resultPrestat uint32) uint32 {
		return traced(h, wasip1.FdPrestatGetName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok || !e.IsPreopen {
				return wasip1.ErrnoBadf
			}
			// prestat_dir: { tag u8 = 0 (dir), pad3, pr_name_len u32 }
			if !mod.Memory().WriteUint32Le(resultPrestat, 0) {
				return wasip1.ErrnoFault
			}
			if !mod.Memory().WriteUint32Le(resultPrestat+4, uint32(len(e.PreopenPath))) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdPrestatGetName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd, path, pathLen uint32) uint32 {
		return traced(h, wasip1.FdPrestatDirNameName, func() wasip1.Errno {
			e, ok := h.FDs.Lookup(fd)
			if !ok || !e.IsPreopen {
				return wasip1.ErrnoBadf
			}
			name := []byte(e.PreopenPath)
			if uint32(len(name)) > pathLen {
				name = name[:pathLen]
			}
			if !mod.Memory().Write(path, name) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.FdPrestatDirNameName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, fd uint32, buf, bufLen uint32, cookie uint64, resultSize uint32) uint32 {
		return traced(h, wasip1.FdReaddirName, func() wasip1.Errno {
			return doReaddir(mod, h, fd, buf, bufLen, cookie, resultSize)
		})
	}).Export(wasip1.FdReaddirName)
}

// doReaddir lists fd's directory entries starting strictly after cookie,
// writing as many as fit in the buf/bufLen guest buffer, per spec.md
// §4.4: cookie N means "resume after the Nth entry" (0 = start), and the
// cookie scheme is append-only since entries are only ever appended to
// the in-memory directory's insertion-ordered name list (see
// internal/memvol's dirData).
func doReaddir(mod api.Module, h *Host, fd uint32, buf, bufLen uint32, cookie uint64, resultSize uint32) wasip1.Errno {
	e, ok := h.FDs.Lookup(fd)
	if !ok || e.Kind != openfiles.KindDir {
		return wasip1.ErrnoBadf
	}
	entries, err := e.Volume.Readdir(e.Node, "")
	if err != nil {
		return errnoOf(err)
	}

	mem := mod.Memory()
	written := uint32(0)
	cur := buf
	remaining := bufLen

	for i := int(cookie); i < len(entries); i++ {
		entry := entries[i]
		name := []byte(entry.Name)

		if remaining == 0 {
			break
		}
		// Partial dirent records are legal: the guest re-issues readdir
		// with a larger buffer or resumes from the cookie of the last
		// full entry it received.
		headerLen := wasip1.DirentSize
		if remaining < uint32(headerLen) {
			// Count the leftover space as used so the reported size equals
			// bufLen, which tells the guest the buffer filled up and more
			// entries may follow; nothing more is written.
			written += remaining
			break
		}
		if !wasip1mem.WriteDirent(mem, cur, wasip1mem.DirentHeader{
			Next:    uint64(i + 1),
			Ino:     entry.Ino,
			Namelen: uint32(len(name)),
			Type:    direntType(entry.Kind),
		}) {
			return wasip1.ErrnoFault
		}
		cur += wasip1.DirentSize
		remaining -= wasip1.DirentSize
		written += wasip1.DirentSize

		nameN := uint32(len(name))
		if nameN > remaining {
			nameN = remaining
		}
		if nameN > 0 && !mem.Write(cur, name[:nameN]) {
			return wasip1.ErrnoFault
		}
		cur += nameN
		remaining -= nameN
		written += nameN

		if nameN < uint32(len(name)) {
			break
		}
	}

	if !mem.WriteUint32Le(resultSize, written) {
		return wasip1.ErrnoFault
	}
	return wasip1.ErrnoSuccess
}

func direntType(k memvol.Kind) uint8 {
	if k == memvol.KindDir {
		return wasip1.FiletypeDirectory
	}
	return wasip1.FiletypeRegularFile
}
