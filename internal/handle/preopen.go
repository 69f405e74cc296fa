// Package handle implements the preopen path resolver and the typed
// handles (FileHandle, DirHandle, WritableStream) layered over
// internal/memvol, per spec.md §4.2/§4.3.
package handle

import (
	"strings"

	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
)

// Preopen binds a guest-visible absolute path to a directory node of a
// particular volume. Guest-visible paths never have a trailing slash
// (except the single-character root "/").
type Preopen struct {
	GuestPath string
	Volume    *memvol.Volume
	Root      *memvol.Node
}

// Preopens is an ordered set of Preopen bindings, matched longest-prefix
// first so a preopen at "/sandbox/data" wins over one at "/sandbox" for a
// path under the former.
type Preopens struct {
	entries []Preopen
}

func NewPreopens(entries ...Preopen) *Preopens {
	return &Preopens{entries: entries}
}

func (p *Preopens) List() []Preopen { return p.entries }

// Resolve finds the preopen whose GuestPath is the longest prefix of path,
// and returns the path remainder relative to that preopen's root. Returns
// ok=false if no preopen matches (the WASI errno for that case, at the
// syscall boundary, is ENOTCAPABLE: the guest has no root containing the
// requested path).
func (p *Preopens) Resolve(path string) (pre Preopen, rel string, ok bool) {
	bestLen := -1
	for _, e := range p.entries {
		if matchesPrefix(e.GuestPath, path) && len(e.GuestPath) > bestLen {
			pre, bestLen = e, len(e.GuestPath)
		}
	}
	if bestLen < 0 {
		return Preopen{}, "", false
	}
	rel = strings.TrimPrefix(path, pre.GuestPath)
	rel = strings.TrimPrefix(rel, "/")
	return pre, rel, true
}

func matchesPrefix(guestPath, path string) bool {
	if guestPath == "/" {
		return strings.HasPrefix(path, "/")
	}
	if path == guestPath {
		return true
	}
	return strings.HasPrefix(path, guestPath+"/")
}
