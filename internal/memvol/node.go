// Package memvol implements an in-memory, POSIX-flavored directory tree:
// the virtual file system a WASI guest sees through this host. There are
// no symlinks and no hard links; every node has exactly one parent.
package memvol

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind identifies whether a Node is a file or a directory.
type Kind uint8

const (
	KindFile Kind = iota
	KindDir
)

// clock supplies monotonically increasing nanosecond timestamps even when
// the underlying wall clock is coarser than a nanosecond (see DESIGN.md's
// Open Question 1 resolution): each tick folds in the volume's own mutation
// counter so that two mutations landing in the same wall-clock tick still
// produce strictly increasing values.
type clock struct {
	now     func() int64 // epoch nanoseconds
	counter uint64
}

func newClock(now func() int64) *clock {
	if now == nil {
		now = defaultNow
	}
	return &clock{now: now}
}

func (c *clock) tick() int64 {
	n := atomic.AddUint64(&c.counter, 1)
	return c.now() + int64(n)
}

// Node is the common identity shared by files and directories: a stable
// inode number, and the three POSIX timestamps. Exactly one of file or dir
// is non-nil.
type Node struct {
	id    uuid.UUID
	kind  Kind
	atime int64
	mtime int64
	ctime int64

	file *fileData
	dir  *dirData
}

type fileData struct {
	bytes []byte
}

type dirData struct {
	// names preserves insertion order; entries indexes by name. Deleting a
	// name compacts names so that Readdir's order matches spec.md's
	// "insertion order of current entries; deletions compact" rule.
	names   []string
	entries map[string]*Node
}

func newFileNode(c *clock, contents []byte) *Node {
	now := c.tick()
	return &Node{
		id:    uuid.New(),
		kind:  KindFile,
		atime: now, mtime: now, ctime: now,
		file: &fileData{bytes: contents},
	}
}

func newDirNode(c *clock) *Node {
	now := c.tick()
	return &Node{
		id:    uuid.New(),
		kind:  KindDir,
		atime: now, mtime: now, ctime: now,
		dir: &dirData{entries: map[string]*Node{}},
	}
}

// Ino folds the node's UUID into a stable 64-bit inode number, per
// spec.md's "hash of node identity" requirement.
func (n *Node) Ino() uint64 {
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(n.id[i])
		lo = lo<<8 | uint64(n.id[i+8])
	}
	return hi ^ lo
}

func (n *Node) Kind() Kind { return n.kind }
func (n *Node) IsDir() bool  { return n.kind == KindDir }
func (n *Node) IsFile() bool { return n.kind == KindFile }

// Size returns the file's byte length, or the directory's entry count.
func (n *Node) Size() uint64 {
	if n.IsFile() {
		return uint64(len(n.file.bytes))
	}
	return uint64(len(n.dir.names))
}

func (n *Node) Times() (atime, mtime, ctime int64) {
	return n.atime, n.mtime, n.ctime
}

func (n *Node) touchMtime(c *clock) {
	t := c.tick()
	n.mtime, n.ctime = t, t
}

func (n *Node) touchAtime(c *clock) {
	n.atime = c.tick()
}

func (n *dirData) lookup(name string) (*Node, bool) {
	child, ok := n.entries[name]
	return child, ok
}

func (n *dirData) insert(name string, child *Node) {
	if _, exists := n.entries[name]; !exists {
		n.names = append(n.names, name)
	}
	n.entries[name] = child
}

func (n *dirData) remove(name string) {
	if _, ok := n.entries[name]; !ok {
		return
	}
	delete(n.entries, name)
	for i, nm := range n.names {
		if nm == name {
			n.names = append(n.names[:i], n.names[i+1:]...)
			break
		}
	}
}
