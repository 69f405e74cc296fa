package memvol

import "time"

func defaultNow() int64 { return time.Now().UnixNano() }

// Stat is the metadata returned by Volume.Stat and read by fd_filestat_get
// / path_filestat_get.
type Stat struct {
	Ino           uint64
	Kind          Kind
	Size          uint64
	Atime         int64
	Mtime         int64
	Ctime         int64
}

// DirEntry is one row of a Readdir result.
type DirEntry struct {
	Name string
	Ino  uint64
	Kind Kind
}

// Volume is the in-memory file system described by spec.md §3/§4.1: a
// single tree of File/Dir nodes rooted at Root. All operations are
// synchronous and, per spec.md §5, are only ever called from the single
// goroutine driving one guest's Run — no internal locking is needed.
type Volume struct {
	root  *Node
	clock *clock
}

// New creates an empty volume with a single empty root directory. nowFn
// overrides the wall-clock source for tests that need deterministic
// timestamps; pass nil in production to use time.Now.
func New(nowFn func() int64) *Volume {
	c := newClock(nowFn)
	return &Volume{root: newDirNode(c), clock: c}
}

// Root returns the volume's root directory node, for binding as a preopen.
func (v *Volume) Root() *Node { return v.root }

func stat(n *Node) Stat {
	a, m, c := n.Times()
	return Stat{Ino: n.Ino(), Kind: n.Kind(), Size: n.Size(), Atime: a, Mtime: m, Ctime: c}
}

// walk resolves path (relative to start) into the Node it names, along
// with its parent directory node and the final path component (so callers
// that need to mutate the parent's entry map don't have to re-walk).
// escaped path components yield ErrNotCapable.
func (v *Volume) walk(start *Node, path string) (parent *Node, name string, target *Node, err error) {
	comps, escaped := resolveComponents(splitPath(path))
	if escaped {
		return nil, "", nil, ErrNotCapable
	}
	if len(comps) == 0 {
		return nil, "", start, nil
	}
	cur := start
	for i, c := range comps[:len(comps)-1] {
		if !cur.IsDir() {
			return nil, "", nil, ErrNotDir
		}
		next, ok := cur.dir.lookup(c)
		if !ok {
			return nil, "", nil, ErrNotExist
		}
		cur = next
		_ = i
	}
	if !cur.IsDir() {
		return nil, "", nil, ErrNotDir
	}
	last := comps[len(comps)-1]
	child, ok := cur.dir.lookup(last)
	if !ok {
		return cur, last, nil, ErrNotExist
	}
	return cur, last, child, nil
}

// Stat returns the metadata of the node at path.
func (v *Volume) Stat(path string) (Stat, error) {
	return v.StatFrom(v.root, path)
}

// StatFrom resolves path relative to start (a directory node, typically a
// preopen root) rather than the volume root.
func (v *Volume) StatFrom(start *Node, path string) (Stat, error) {
	_, _, n, err := v.walk(start, path)
	if err != nil {
		return Stat{}, err
	}
	return stat(n), nil
}

// ReadFile returns a node's file contents. Returns ErrIsDir for a
// directory target.
func (v *Volume) ReadFile(start *Node, path string) ([]byte, error) {
	_, _, n, err := v.walk(start, path)
	if err != nil {
		return nil, err
	}
	if n.IsDir() {
		return nil, ErrIsDir
	}
	n.touchAtime(v.clock)
	out := make([]byte, len(n.file.bytes))
	copy(out, n.file.bytes)
	return out, nil
}

// WriteFile replaces a file's contents wholesale. Fails ErrNotExist if the
// parent directory does not exist; createMissing allows creating the leaf
// (but never intermediate components — callers needing recursive create
// use Mkdir first, matching spec.md's "creates intermediate components
// only if asked" wording, which scopes that behavior to Mkdir).
func (v *Volume) WriteFile(start *Node, path string, contents []byte, createMissing bool) error {
	parent, name, n, err := v.walk(start, path)
	if err == ErrNotExist && createMissing {
		if parent == nil {
			return ErrNotExist
		}
		child := newFileNode(v.clock, append([]byte(nil), contents...))
		parent.dir.insert(name, child)
		parent.touchMtime(v.clock)
		return nil
	}
	if err != nil {
		return err
	}
	if n.IsDir() {
		return ErrIsDir
	}
	n.file.bytes = append([]byte(nil), contents...)
	n.touchMtime(v.clock)
	return nil
}

// Mkdir creates a directory at path. If recursive, missing intermediate
// components are created as directories; otherwise a missing parent is
// ErrNotExist.
func (v *Volume) Mkdir(start *Node, path string, recursive bool) error {
	comps, escaped := resolveComponents(splitPath(path))
	if escaped {
		return ErrNotCapable
	}
	if len(comps) == 0 {
		return ErrExist
	}
	cur := start
	for i, c := range comps {
		last := i == len(comps)-1
		next, ok := cur.dir.lookup(c)
		if ok {
			if !next.IsDir() {
				return ErrNotDir
			}
			if last {
				return ErrExist
			}
			cur = next
			continue
		}
		if !last && !recursive {
			return ErrNotExist
		}
		child := newDirNode(v.clock)
		cur.dir.insert(c, child)
		cur.touchMtime(v.clock)
		cur = child
	}
	return nil
}

// Readdir lists path's entries in insertion order.
func (v *Volume) Readdir(start *Node, path string) ([]DirEntry, error) {
	_, _, n, err := v.walk(start, path)
	if err != nil {
		return nil, err
	}
	if !n.IsDir() {
		return nil, ErrNotDir
	}
	return v.readdirNode(n), nil
}

func (v *Volume) readdirNode(n *Node) []DirEntry {
	out := make([]DirEntry, 0, len(n.dir.names))
	for _, name := range n.dir.names {
		child := n.dir.entries[name]
		out = append(out, DirEntry{Name: name, Ino: child.Ino(), Kind: child.Kind()})
	}
	return out
}

// Unlink removes a file entry. ErrIsDir if the target is a directory.
func (v *Volume) Unlink(start *Node, path string) error {
	parent, name, n, err := v.walk(start, path)
	if err != nil {
		return err
	}
	if n.IsDir() {
		return ErrIsDir
	}
	parent.dir.remove(name)
	parent.touchMtime(v.clock)
	return nil
}

// Rmdir removes an empty directory entry.
func (v *Volume) Rmdir(start *Node, path string) error {
	parent, name, n, err := v.walk(start, path)
	if err != nil {
		return err
	}
	if !n.IsDir() {
		return ErrNotDir
	}
	if len(n.dir.names) > 0 {
		return ErrNotEmpty
	}
	parent.dir.remove(name)
	parent.touchMtime(v.clock)
	return nil
}

// Rename moves src (relative to srcStart) to dst (relative to dstStart) —
// same-directory renames pass the same node for both. Cross-volume renames
// are rejected one layer up, in internal/wasihost, per spec.md's EXDEV
// rule. dst is overwritten if it is a file; kind mismatches and a
// non-empty directory dst fail accordingly.
func (v *Volume) Rename(srcStart *Node, src string, dstStart *Node, dst string) error {
	srcParent, srcName, srcNode, err := v.walk(srcStart, src)
	if err != nil {
		return err
	}
	dstParent, dstName, dstNode, err := v.walk(dstStart, dst)
	if err != nil && err != ErrNotExist {
		return err
	}
	if dstNode != nil {
		if dstNode.IsDir() != srcNode.IsDir() {
			if srcNode.IsDir() {
				return ErrNotDir
			}
			return ErrIsDir
		}
		if dstNode.IsDir() && len(dstNode.dir.names) > 0 {
			return ErrNotEmpty
		}
	}
	srcParent.dir.remove(srcName)
	dstParent.dir.insert(dstName, srcNode)
	srcParent.touchMtime(v.clock)
	dstParent.touchMtime(v.clock)
	return nil
}

// TruncateAndWriteNode replaces an already-resolved file node's contents
// wholesale (used by WritableStream.Close to publish atomically without
// re-walking the path).
func (v *Volume) TruncateAndWriteNode(n *Node, contents []byte) error {
	if n.IsDir() {
		return ErrIsDir
	}
	n.file.bytes = append([]byte(nil), contents...)
	n.touchMtime(v.clock)
	return nil
}

// Truncate resizes a file's byte buffer, zero-filling on extension.
func (v *Volume) Truncate(start *Node, path string, size uint64) error {
	_, _, n, err := v.walk(start, path)
	if err != nil {
		return err
	}
	if n.IsDir() {
		return ErrIsDir
	}
	return v.TruncateNode(n, size)
}

// TruncateNode resizes an already-resolved file node directly (used by
// fd_filestat_set_size, fd_allocate and path_open's O_TRUNC, which hold a
// node reference rather than a path).
func (v *Volume) TruncateNode(n *Node, size uint64) error {
	cur := uint64(len(n.file.bytes))
	switch {
	case size == cur:
	case size < cur:
		n.file.bytes = n.file.bytes[:size]
	default:
		grown := make([]byte, size)
		copy(grown, n.file.bytes)
		n.file.bytes = grown
	}
	n.touchMtime(v.clock)
	return nil
}

// SetTimes overrides a node's atime/mtime directly, per
// fd_filestat_set_times/path_filestat_set_times. A negative value leaves
// that field unchanged.
func (v *Volume) SetTimes(n *Node, atime, mtime int64) {
	if atime >= 0 {
		n.atime = atime
	}
	if mtime >= 0 {
		n.mtime = mtime
		n.ctime = v.clock.tick()
	}
}

// Resolve walks path relative to start and returns the target node
// without reading or mutating it (used by path_open and path resolvers
// that need the raw node, e.g. to bind a new OpenFile/OpenDir).
func (v *Volume) Resolve(start *Node, path string) (*Node, error) {
	_, _, n, err := v.walk(start, path)
	return n, err
}

// ResolveParent walks path relative to start and returns the parent
// directory node plus the final component name, without requiring the
// final component to already exist — used by path_open's O_CREAT path.
func (v *Volume) ResolveParent(start *Node, path string) (parent *Node, name string, existing *Node, err error) {
	return v.walk(start, path)
}

// CreateFile creates a new, empty file entry under parent (used by
// path_open's O_CREAT path).
func (v *Volume) CreateFile(parent *Node, name string, contents []byte) *Node {
	child := newFileNode(v.clock, contents)
	parent.dir.insert(name, child)
	parent.touchMtime(v.clock)
	return child
}

// Now returns the volume's current monotonic-within-process timestamp,
// without mutating any node (used for the *_NOW flags of
// fd_filestat_set_times/path_filestat_set_times, so those timestamps follow
// the same clock as every other file timestamp).
func (v *Volume) Now() int64 { return v.clock.tick() }
