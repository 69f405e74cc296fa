package handle

import (
	"errors"

	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
)

// ErrStreamClosed is returned by any WritableStream method called after
// Close has already published the stream's contents. The syscall
// dispatcher maps this to wasip1.ErrnoBadf, per spec.md §4.3.
var ErrStreamClosed = errors.New("handle: writable stream closed")

// WritableStream is a per-open buffered writer: spec.md §4.3. It holds a
// detached copy of the target's bytes until Close publishes them back to
// the volume atomically (a single TruncateAndWriteNode call).
type WritableStream struct {
	volume *memvol.Volume
	node   *memvol.Node

	buf    []byte
	cursor uint64
	closed bool
}

func newWritableStream(v *memvol.Volume, node *memvol.Node, initial []byte) *WritableStream {
	return &WritableStream{volume: v, node: node, buf: initial, cursor: uint64(len(initial))}
}

// Write stores bytes at position at (or at the stream's cursor if at is
// nil), zero-filling any gap, per spec.md §4.3's "writes to position p
// expand the internal buffer with zero fill to p+len if needed" contract.
// A write at the cursor leaves the cursor at the end of the write; a write
// at an explicit position leaves the cursor where it was.
func (w *WritableStream) Write(data []byte, at *uint64) (n int, err error) {
	if w.closed {
		return 0, ErrStreamClosed
	}
	pos := w.cursor
	if at != nil {
		pos = *at
	}
	end := pos + uint64(len(data))
	if end > uint64(len(w.buf)) {
		grown := make([]byte, end)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[pos:end], data)
	if at == nil {
		w.cursor = end
	}
	return len(data), nil
}

// Seek moves the cursor. Seeking past the current size is legal; the next
// Write sparsely extends the buffer.
func (w *WritableStream) Seek(pos uint64) error {
	if w.closed {
		return ErrStreamClosed
	}
	w.cursor = pos
	return nil
}

// Truncate resizes the buffer directly.
func (w *WritableStream) Truncate(size uint64) error {
	if w.closed {
		return ErrStreamClosed
	}
	if size <= uint64(len(w.buf)) {
		w.buf = w.buf[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, w.buf)
	w.buf = grown
	return nil
}

// Size reports the stream's current buffered length.
func (w *WritableStream) Size() uint64 { return uint64(len(w.buf)) }

// Bytes returns a copy of the stream's buffered contents, for readers that
// share the same fd as an open writer: the underlying node is not updated
// until Close, so a read-after-write on that fd must see the buffer, not
// the node.
func (w *WritableStream) Bytes() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

// Close publishes the buffered contents to the volume atomically and
// releases the stream's detached buffer. It is idempotent: a second call
// is a no-op, per spec.md §4.3.
func (w *WritableStream) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.volume.TruncateAndWriteNode(w.node, w.buf)
}
