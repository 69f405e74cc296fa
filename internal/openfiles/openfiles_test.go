package openfiles

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/wasi-fs-host/internal/handle"
	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

func newTestVolume() *memvol.Volume {
	var n int64
	return memvol.New(func() int64 { n++; return n })
}

func TestNewSeedsStdioAndPreopensInOrder(t *testing.T) {
	v := newTestVolume()
	tbl := New([]handle.Preopen{
		{GuestPath: "/a", Volume: v, Root: v.Root()},
		{GuestPath: "/b", Volume: v, Root: v.Root()},
	})

	stdin, ok := tbl.Lookup(FdStdin)
	require.True(t, ok)
	require.Equal(t, KindStdio, stdin.Kind)
	require.Equal(t, StdioIn, stdin.Stdio)

	stdout, ok := tbl.Lookup(FdStdout)
	require.True(t, ok)
	require.Equal(t, StdioOut, stdout.Stdio)

	stderr, ok := tbl.Lookup(FdStderr)
	require.True(t, ok)
	require.Equal(t, StdioErr, stderr.Stdio)

	pre0, ok := tbl.Lookup(FdPreopen)
	require.True(t, ok)
	require.True(t, pre0.IsPreopen)
	require.Equal(t, "/a", pre0.PreopenPath)

	pre1, ok := tbl.Lookup(FdPreopen + 1)
	require.True(t, ok)
	require.Equal(t, "/b", pre1.PreopenPath)
}

func TestOpenFileAllocatesLowestFreeSlotAfterPreopens(t *testing.T) {
	v := newTestVolume()
	tbl := New([]handle.Preopen{{GuestPath: "/a", Volume: v, Root: v.Root()}})

	fd := tbl.OpenFile(v.Root(), v, 0, 0, 0)
	require.Equal(t, FdPreopen+1, fd)

	require.NoError(t, tbl.CloseFile(fd))

	fd2 := tbl.OpenFile(v.Root(), v, 0, 0, 0)
	require.Equal(t, fd, fd2, "closing the only non-preopen fd must free its slot for reuse")
}

func TestCloseFileRejectsPreopen(t *testing.T) {
	v := newTestVolume()
	tbl := New([]handle.Preopen{{GuestPath: "/a", Volume: v, Root: v.Root()}})

	err := tbl.CloseFile(FdPreopen)
	require.Error(t, err)
	errno, ok := Errno(err)
	require.True(t, ok)
	require.Equal(t, wasip1.ErrnoNotsup, errno)
}

func TestCloseFileRejectsUnknownFd(t *testing.T) {
	tbl := New(nil)
	err := tbl.CloseFile(999)
	require.Error(t, err)
	errno, ok := Errno(err)
	require.True(t, ok)
	require.Equal(t, wasip1.ErrnoBadf, errno)
}

func TestRenumberTransplantsAndClosesDestination(t *testing.T) {
	v := newTestVolume()
	tbl := New(nil)
	from := tbl.OpenFile(v.Root(), v, 0, 0, 0)
	to := tbl.OpenFile(v.Root(), v, 0, 0, 0)

	require.NoError(t, tbl.Renumber(from, to))

	_, ok := tbl.Lookup(from)
	require.False(t, ok, "renumbering must vacate the source slot")

	moved, ok := tbl.Lookup(to)
	require.True(t, ok)
	require.Equal(t, KindFile, moved.Kind)
}

func TestRenumberRejectsPreopenInvolvement(t *testing.T) {
	v := newTestVolume()
	tbl := New([]handle.Preopen{{GuestPath: "/a", Volume: v, Root: v.Root()}})
	other := tbl.OpenFile(v.Root(), v, 0, 0, 0)

	require.Error(t, tbl.Renumber(FdPreopen, other))
	require.Error(t, tbl.Renumber(other, FdPreopen))
}

func TestCloseAllFlushesWritableStreams(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.WriteFile(root, "file", []byte("old"), true))
	node, err := v.Resolve(root, "file")
	require.NoError(t, err)

	tbl := New(nil)
	fd := tbl.OpenFile(node, v, 0, 0, 0)
	entry, ok := tbl.Lookup(fd)
	require.True(t, ok)

	stream, err := (handle.FileHandle{Volume: v, Node: node}).CreateWritable(false)
	require.NoError(t, err)
	_, err = stream.Write([]byte("new"), nil)
	require.NoError(t, err)
	entry.Stream = stream

	tbl.CloseAll()

	data, err := v.ReadFile(root, "file")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), data)
}

func TestPreopensEnumeratesInAscendingFdOrder(t *testing.T) {
	v := newTestVolume()
	tbl := New([]handle.Preopen{
		{GuestPath: "/a", Volume: v, Root: v.Root()},
		{GuestPath: "/b", Volume: v, Root: v.Root()},
	})

	pres := tbl.Preopens()
	require.Len(t, pres, 2)
	require.Equal(t, FdPreopen, pres[0].Fd)
	require.Equal(t, FdPreopen+1, pres[1].Fd)
}
