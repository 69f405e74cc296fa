// Package wasip1mem marshals WASI preview-1 wire structs to and from a
// guest's linear memory, per spec.md §4.5. Every struct follows the exact
// byte layout WASI preview-1 defines; callers hold an api.Memory obtained
// fresh for the current call, since the guest's memory may grow between
// calls.
package wasip1mem

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

// ErrFault is returned whenever a guest pointer/length falls outside the
// instance's linear memory; callers map it to wasip1.ErrnoFault.
type ErrFault struct{}

func (ErrFault) Error() string { return "wasip1mem: guest pointer out of bounds" }

// Iovec is the 8-byte { buf ptr32, len u32 } struct read by the
// scatter/gather I/O syscalls.
type Iovec struct {
	Buf uint32
	Len uint32
}

// ReadIovecs reads count consecutive Iovec structs starting at ptr.
func ReadIovecs(mem api.Memory, ptr, count uint32) ([]Iovec, error) {
	out := make([]Iovec, count)
	for i := uint32(0); i < count; i++ {
		buf, ok := mem.ReadUint32Le(ptr + i*wasip1.IovecSize)
		if !ok {
			return nil, ErrFault{}
		}
		ln, ok := mem.ReadUint32Le(ptr + i*wasip1.IovecSize + 4)
		if !ok {
			return nil, ErrFault{}
		}
		out[i] = Iovec{Buf: buf, Len: ln}
	}
	return out, nil
}

// ReadString copies length bytes at ptr out of guest memory as a string,
// used by path_open and the other path_* syscalls to pull the guest's path
// argument.
func ReadString(mem api.Memory, ptr, length uint32) (string, error) {
	b, ok := mem.Read(ptr, length)
	if !ok {
		return "", ErrFault{}
	}
	return string(b), nil
}

// WriteFdstat writes the 24-byte fdstat struct:
//
//	fs_filetype u8, pad, fs_flags u16, pad4, rights_base u64, rights_inheriting u64
func WriteFdstat(mem api.Memory, ptr uint32, filetype uint8, flags uint16, rightsBase, rightsInheriting uint64) bool {
	buf, ok := mem.Read(ptr, wasip1.FdstatSize)
	if !ok {
		return false
	}
	buf[0] = filetype
	buf[1] = 0
	putUint16(buf[2:4], flags)
	putUint32(buf[4:8], 0)
	putUint64(buf[8:16], rightsBase)
	putUint64(buf[16:24], rightsInheriting)
	return true
}

// WriteFilestat writes the 64-byte filestat struct:
//
//	dev u64, ino u64, filetype u8, pad7, nlink u64, size u64, atim u64, mtim u64, ctim u64
func WriteFilestat(mem api.Memory, ptr uint32, st memvol.Stat) bool {
	buf, ok := mem.Read(ptr, wasip1.FilestatSize)
	if !ok {
		return false
	}
	putUint64(buf[0:8], 0) // dev: single synthetic device, always 0
	putUint64(buf[8:16], st.Ino)
	buf[16] = filetypeOf(st.Kind)
	for i := 17; i < 24; i++ {
		buf[i] = 0
	}
	putUint64(buf[24:32], 1) // nlink: no hard links, every node has exactly one
	putUint64(buf[32:40], st.Size)
	putUint64(buf[40:48], uint64(st.Atime))
	putUint64(buf[48:56], uint64(st.Mtime))
	putUint64(buf[56:64], uint64(st.Ctime))
	return true
}

func filetypeOf(k memvol.Kind) uint8 {
	if k == memvol.KindDir {
		return wasip1.FiletypeDirectory
	}
	return wasip1.FiletypeRegularFile
}

// DirentHeader is the fixed 24-byte prefix of a dirent record, followed by
// the raw (non-NUL-terminated) entry name.
type DirentHeader struct {
	Next    uint64
	Ino     uint64
	Namelen uint32
	Type    uint8
}

// WriteDirent writes one dirent header at ptr; the caller writes the name
// bytes separately, immediately following.
func WriteDirent(mem api.Memory, ptr uint32, h DirentHeader) bool {
	buf, ok := mem.Read(ptr, wasip1.DirentSize)
	if !ok {
		return false
	}
	putUint64(buf[0:8], h.Next)
	putUint64(buf[8:16], h.Ino)
	putUint32(buf[16:20], h.Namelen)
	buf[20] = h.Type
	buf[21], buf[22], buf[23] = 0, 0, 0
	return true
}

// WriteOffsetsAndNullTerminatedValues writes argv/environ-style data: an
// array of uint32 offsets at arrPtr (one per value, pointing into bufPtr),
// followed by each value's bytes NUL-terminated at bufPtr. Used by
// args_get and environ_get.
func WriteOffsetsAndNullTerminatedValues(mem api.Memory, values [][]byte, arrPtr, bufPtr uint32) bool {
	bufCursor := bufPtr
	for i, v := range values {
		if !mem.WriteUint32Le(arrPtr+uint32(i)*4, bufCursor) {
			return false
		}
		if !mem.Write(bufCursor, v) {
			return false
		}
		bufCursor += uint32(len(v))
		if !mem.WriteByte(bufCursor, 0) {
			return false
		}
		bufCursor++
	}
	return true
}

// SizesOf returns (count, totalLen) for args_sizes_get/environ_sizes_get:
// totalLen includes one NUL terminator per value.
func SizesOf(values [][]byte) (count, totalLen uint32) {
	count = uint32(len(values))
	for _, v := range values {
		totalLen += uint32(len(v)) + 1
	}
	return
}

func putUint16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
