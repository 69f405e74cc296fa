package handle

import "github.com/tetratelabs/wasi-fs-host/internal/memvol"

// FileHandle and DirHandle wrap a (volume, node) pair that path_open's
// resolution step has already bound, matching spec.md §4.2's description
// of the handle layer as a thin wrapper the syscall dispatcher asks for a
// file, a directory, or a writable stream.
type FileHandle struct {
	Volume *memvol.Volume
	Node   *memvol.Node
}

type DirHandle struct {
	Volume *memvol.Volume
	Node   *memvol.Node
}

// CreateWritable opens a buffered WritableStream over the handle's node.
// If keepExisting is true, the stream starts pre-seeded with the node's
// current contents (used by append-mode opens and by fd_write);
// otherwise it starts empty and will overwrite on Close.
func (h FileHandle) CreateWritable(keepExisting bool) (*WritableStream, error) {
	var initial []byte
	if keepExisting {
		if h.Node.IsDir() {
			return nil, memvol.ErrIsDir
		}
		data, err := h.Volume.ReadFile(h.Node, "")
		if err != nil {
			return nil, err
		}
		initial = data
	}
	return newWritableStream(h.Volume, h.Node, initial), nil
}
