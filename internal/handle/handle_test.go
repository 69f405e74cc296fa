package handle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
)

func newTestVolume() *memvol.Volume {
	var n int64
	return memvol.New(func() int64 { n++; return n })
}

func TestPreopensResolvesLongestPrefix(t *testing.T) {
	v := newTestVolume()
	p := NewPreopens(
		Preopen{GuestPath: "/", Volume: v, Root: v.Root()},
		Preopen{GuestPath: "/sandbox", Volume: v, Root: v.Root()},
		Preopen{GuestPath: "/sandbox/data", Volume: v, Root: v.Root()},
	)

	pre, rel, ok := p.Resolve("/sandbox/data/file.txt")
	require.True(t, ok)
	require.Equal(t, "/sandbox/data", pre.GuestPath)
	require.Equal(t, "file.txt", rel)

	pre, rel, ok = p.Resolve("/sandbox/other.txt")
	require.True(t, ok)
	require.Equal(t, "/sandbox", pre.GuestPath)
	require.Equal(t, "other.txt", rel)

	pre, rel, ok = p.Resolve("/elsewhere")
	require.True(t, ok)
	require.Equal(t, "/", pre.GuestPath)
	require.Equal(t, "elsewhere", rel)
}

func TestPreopensResolveFailsWithNoMatch(t *testing.T) {
	p := NewPreopens(Preopen{GuestPath: "/sandbox", Volume: newTestVolume()})
	_, _, ok := p.Resolve("/other/path")
	require.False(t, ok)
}

func TestWritableStreamWriteAtAndZeroFill(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.WriteFile(root, "file", []byte("ab"), true))
	node, err := v.Resolve(root, "file")
	require.NoError(t, err)

	s := FileHandle{Volume: v, Node: node}
	ws, err := s.CreateWritable(true)
	require.NoError(t, err)

	at := uint64(4)
	n, err := ws.Write([]byte("z"), &at)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, uint64(5), ws.Size())

	require.NoError(t, ws.Close())

	data, err := v.ReadFile(root, "file")
	require.NoError(t, err)
	require.Equal(t, []byte{'a', 'b', 0, 0, 'z'}, data)
}

func TestWritableStreamCloseIsIdempotent(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.WriteFile(root, "file", []byte("x"), true))
	node, err := v.Resolve(root, "file")
	require.NoError(t, err)

	ws, err := FileHandle{Volume: v, Node: node}.CreateWritable(false)
	require.NoError(t, err)
	_, err = ws.Write([]byte("new"), nil)
	require.NoError(t, err)

	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close(), "a second Close must be a no-op, not an error")

	data, err := v.ReadFile(root, "file")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), data)
}

func TestWritableStreamMethodsFailAfterClose(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.WriteFile(root, "file", []byte("x"), true))
	node, err := v.Resolve(root, "file")
	require.NoError(t, err)

	ws, err := FileHandle{Volume: v, Node: node}.CreateWritable(false)
	require.NoError(t, err)
	require.NoError(t, ws.Close())

	_, err = ws.Write([]byte("y"), nil)
	require.ErrorIs(t, err, ErrStreamClosed)
	require.ErrorIs(t, ws.Seek(0), ErrStreamClosed)
	require.ErrorIs(t, ws.Truncate(0), ErrStreamClosed)
}

