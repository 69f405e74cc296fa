// Package openfiles implements the per-guest file-descriptor table:
// spec.md §3's OpenFile variant and §4.4's OpenFiles table, grounded on
// the teacher's own internal/sys.FSContext (recovered from a vendored
// copy, since the direct retrieval pack filtered the non-test source —
// see DESIGN.md).
package openfiles

import (
	"github.com/tetratelabs/wasi-fs-host/internal/descriptor"
	"github.com/tetratelabs/wasi-fs-host/internal/handle"
	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

// Kind distinguishes the three OpenFile variants of spec.md §3.
type Kind uint8

const (
	KindStdio Kind = iota
	KindFile
	KindDir
)

const (
	FdStdin  = uint32(0)
	FdStdout = uint32(1)
	FdStderr = uint32(2)
	// FdPreopen is the first descriptor handed to preopened directories.
	FdPreopen = uint32(3)
)

// StdioKind names which stream a Stdio entry represents.
type StdioKind uint8

const (
	StdioIn StdioKind = iota
	StdioOut
	StdioErr
)

// Entry is one occupied slot of a Table.
type Entry struct {
	Kind Kind

	// Stdio
	Stdio StdioKind

	// File
	Node             *memvol.Node
	Volume           *memvol.Volume
	Cursor           uint64
	Flags            uint16
	RightsBase       uint64
	RightsInheriting uint64
	Stream           *handle.WritableStream // non-nil only while a writer is open

	// Dir
	PreopenPath string

	// IsPreopen marks fds 3..3+N-1: renumber/close on these is rejected,
	// per spec.md §4.4 and the teacher's own FSContext.Renumber rule.
	IsPreopen bool
}

// Table is the per-run file-descriptor table. Descriptors 0/1/2 are
// always Stdio; preopens occupy 3..3+N-1 at construction; everything
// after is allocated lowest-free via the generic bitmap table.
type Table struct {
	fds *descriptor.Table[uint32, *Entry]
}

// New seeds stdio at 0/1/2 and the given preopens starting at fd 3, in
// order, matching spec.md §3's "guest enumerates them starting at
// descriptor 3".
func New(preopens []handle.Preopen) *Table {
	t := &Table{fds: new(descriptor.Table[uint32, *Entry])}
	t.fds.InsertAt(&Entry{Kind: KindStdio, Stdio: StdioIn}, FdStdin)
	t.fds.InsertAt(&Entry{Kind: KindStdio, Stdio: StdioOut}, FdStdout)
	t.fds.InsertAt(&Entry{Kind: KindStdio, Stdio: StdioErr}, FdStderr)
	for i, p := range preopens {
		fd := FdPreopen + uint32(i)
		t.fds.InsertAt(&Entry{
			Kind:        KindDir,
			Node:        p.Root,
			Volume:      p.Volume,
			PreopenPath: p.GuestPath,
			IsPreopen:   true,
		}, fd)
	}
	return t
}

// Lookup returns the entry bound to fd.
func (t *Table) Lookup(fd uint32) (*Entry, bool) {
	return t.fds.Lookup(fd)
}

// OpenFile allocates a new descriptor bound to an open file.
func (t *Table) OpenFile(node *memvol.Node, vol *memvol.Volume, flags uint16, rightsBase, rightsInheriting uint64) uint32 {
	return t.fds.Insert(&Entry{
		Kind: KindFile, Node: node, Volume: vol,
		Flags: flags, RightsBase: rightsBase, RightsInheriting: rightsInheriting,
	})
}

// OpenDir allocates a new descriptor bound to an open directory.
func (t *Table) OpenDir(node *memvol.Node, vol *memvol.Volume, preopenPath string) uint32 {
	return t.fds.Insert(&Entry{Kind: KindDir, Node: node, Volume: vol, PreopenPath: preopenPath})
}

// CloseFile releases fd's resources, flushing any backing writable stream
// first. Closing a preopen is rejected (ErrnoNotsup), per spec.md §4.4.
func (t *Table) CloseFile(fd uint32) error {
	e, ok := t.fds.Lookup(fd)
	if !ok {
		return errBadf
	}
	if e.IsPreopen {
		return errNotsup
	}
	if e.Stream != nil {
		if err := e.Stream.Close(); err != nil {
			return err
		}
	}
	t.fds.Delete(fd)
	return nil
}

// Renumber closes to (if open) and transplants from onto to, per
// spec.md §4.4. Renumbering a preopen, or renumbering onto one, is
// rejected.
func (t *Table) Renumber(from, to uint32) error {
	src, ok := t.fds.Lookup(from)
	if !ok {
		return errBadf
	}
	if src.IsPreopen {
		return errNotsup
	}
	if dst, ok := t.fds.Lookup(to); ok {
		if dst.IsPreopen {
			return errNotsup
		}
		t.fds.Delete(to)
	}
	t.fds.Delete(from)
	t.fds.InsertAt(src, to)
	return nil
}

// CloseAll closes every still-open descriptor, flushing writable streams
// first, in the order fd_close would — called at run termination per
// spec.md §5.
func (t *Table) CloseAll() {
	var fds []uint32
	t.fds.Range(func(fd uint32, e *Entry) bool {
		fds = append(fds, fd)
		return true
	})
	for _, fd := range fds {
		e, _ := t.fds.Lookup(fd)
		if e.Stream != nil {
			_ = e.Stream.Close()
		}
		t.fds.Delete(fd)
	}
}

// Preopens returns the preopen entries in ascending fd order, the order
// fd_prestat_get enumeration expects.
func (t *Table) Preopens() []struct {
	Fd    uint32
	Entry *Entry
} {
	var out []struct {
		Fd    uint32
		Entry *Entry
	}
	t.fds.Range(func(fd uint32, e *Entry) bool {
		if e.IsPreopen {
			out = append(out, struct {
				Fd    uint32
				Entry *Entry
			}{fd, e})
		}
		return true
	})
	return out
}

var (
	errBadf   = wasip1Error(wasip1.ErrnoBadf)
	errNotsup = wasip1Error(wasip1.ErrnoNotsup)
)

// wasip1Error lets this package return plain Go errors for the few
// conditions it detects directly (bad fd, preopen protection) while
// internal/wasihost maps memvol's sentinel errors the same way at every
// other call site — see the "Error handling" paragraph of SPEC_FULL.md's
// Ambient Stack.
type errnoError wasip1.Errno

func wasip1Error(e wasip1.Errno) error { return errnoError(e) }

func (e errnoError) Error() string { return wasip1.ErrnoName(wasip1.Errno(e)) }

// Errno extracts the WASI errno carried by an error produced by this
// package, if any.
func Errno(err error) (wasip1.Errno, bool) {
	e, ok := err.(errnoError)
	return wasip1.Errno(e), ok
}
