package memvol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestVolume() *Volume {
	var n int64
	return New(func() int64 { n++; return n })
}

func TestWriteReadRoundTrip(t *testing.T) {
	v := newTestVolume()
	root := v.Root()

	err := v.WriteFile(root, "greeting.txt", []byte("hello"), true)
	require.NoError(t, err)

	data, err := v.ReadFile(root, "greeting.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestWriteFileWithoutCreateMissingFails(t *testing.T) {
	v := newTestVolume()
	err := v.WriteFile(v.Root(), "missing.txt", []byte("x"), false)
	require.ErrorIs(t, err, ErrNotExist)
}

func TestMkdirRecursiveAndNonRecursive(t *testing.T) {
	v := newTestVolume()
	root := v.Root()

	require.ErrorIs(t, v.Mkdir(root, "a/b/c", false), ErrNotExist)
	require.NoError(t, v.Mkdir(root, "a/b/c", true))

	st, err := v.StatFrom(root, "a/b/c")
	require.NoError(t, err)
	require.Equal(t, KindDir, st.Kind)
}

func TestMkdirExistingNameFails(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.Mkdir(root, "dir", false))
	require.ErrorIs(t, v.Mkdir(root, "dir", false), ErrExist)
}

func TestPathEscapeIsRejected(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.Mkdir(root, "sub", false))
	sub, err := v.Resolve(root, "sub")
	require.NoError(t, err)

	_, err = v.Resolve(sub, "../../../etc/passwd")
	require.ErrorIs(t, err, ErrNotCapable)
}

func TestReaddirPreservesInsertionOrderAndCompactsOnDelete(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, v.WriteFile(root, name, nil, true))
	}

	entries, err := v.Readdir(root, "")
	require.NoError(t, err)
	require.Equal(t, []string{"c", "a", "b"}, names(entries))

	require.NoError(t, v.Unlink(root, "a"))
	entries, err = v.Readdir(root, "")
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, names(entries))
}

func names(entries []DirEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestRmdirRejectsNonEmptyDirectory(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.Mkdir(root, "dir", false))
	require.NoError(t, v.WriteFile(root, "dir/file", []byte("x"), true))

	require.ErrorIs(t, v.Rmdir(root, "dir"), ErrNotEmpty)

	require.NoError(t, v.Unlink(root, "dir/file"))
	require.NoError(t, v.Rmdir(root, "dir"))
}

func TestRenameAcrossDirectories(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.Mkdir(root, "src", false))
	require.NoError(t, v.Mkdir(root, "dst", false))
	require.NoError(t, v.WriteFile(root, "src/file", []byte("x"), true))

	src, err := v.Resolve(root, "src")
	require.NoError(t, err)
	dst, err := v.Resolve(root, "dst")
	require.NoError(t, err)

	require.NoError(t, v.Rename(src, "file", dst, "file"))

	_, err = v.Resolve(src, "file")
	require.ErrorIs(t, err, ErrNotExist)
	data, err := v.ReadFile(dst, "file")
	require.NoError(t, err)
	require.Equal(t, []byte("x"), data)
}

func TestRenameIsIdempotentOnSamePath(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.WriteFile(root, "file", []byte("x"), true))

	require.NoError(t, v.Rename(root, "file", root, "file2"))
	require.NoError(t, v.Rename(root, "file2", root, "file"))

	data, err := v.ReadFile(root, "file")
	require.NoError(t, err)
	require.Equal(t, []byte("x"), data)
}

func TestTruncateZeroFillsOnExtension(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.WriteFile(root, "file", []byte("ab"), true))
	require.NoError(t, v.Truncate(root, "file", 4))

	data, err := v.ReadFile(root, "file")
	require.NoError(t, err)
	require.Equal(t, []byte{'a', 'b', 0, 0}, data)
}

func TestFdFilestatAndPathFilestatAgree(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.WriteFile(root, "file", []byte("hello"), true))

	node, err := v.Resolve(root, "file")
	require.NoError(t, err)

	byPath, err := v.StatFrom(root, "file")
	require.NoError(t, err)
	byNode, err := v.StatFrom(node, "")
	require.NoError(t, err)
	require.Equal(t, byPath, byNode)
}

func TestTimestampsStrictlyIncreaseAcrossMutations(t *testing.T) {
	v := newTestVolume()
	root := v.Root()

	require.NoError(t, v.WriteFile(root, "file", []byte("a"), true))
	node, err := v.Resolve(root, "file")
	require.NoError(t, err)
	_, mtime1, ctime1 := node.Times()

	require.NoError(t, v.WriteFile(root, "file", []byte("ab"), false))
	_, mtime2, ctime2 := node.Times()

	require.Greater(t, mtime2, mtime1)
	require.Greater(t, ctime2, ctime1)
}

func TestSnapshotReadStability(t *testing.T) {
	v := newTestVolume()
	root := v.Root()
	require.NoError(t, v.WriteFile(root, "file", []byte("hello"), true))

	a, err := v.ReadFile(root, "file")
	require.NoError(t, err)

	require.NoError(t, v.WriteFile(root, "file", []byte("world"), true))

	require.Equal(t, []byte("hello"), a, "a previously returned read must not alias the volume's live buffer")
}
