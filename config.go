// Package wasifshost is the root of a WASI preview-1 host binding over an
// in-memory file system: wire up a Config, then Run a compiled module
// against it. See internal/memvol, internal/handle, internal/openfiles,
// and internal/wasihost for the layers underneath.
package wasifshost

import (
	"io"

	"github.com/tetratelabs/wasi-fs-host/internal/handle"
	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
)

// Preopen binds a guest-visible directory path to a root node of a
// MemVolume, handed to the guest as an enumerable preopened directory
// starting at descriptor 3.
type Preopen struct {
	GuestPath string
	Volume    *memvol.Volume
	Root      *memvol.Node
}

// Config collects everything Run needs, built up with chained With*
// methods, directly grounded on wazero's own RuntimeConfig/ModuleConfig
// builder pattern (config.go/builder.go).
type Config struct {
	args     []string
	env      map[string]string
	preopens []Preopen
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	logger   SyscallLogger
}

// NewConfig returns an empty Config; the guest's argv is empty (no
// Args[0] at all) until WithArgs is called.
func NewConfig() *Config {
	return &Config{env: map[string]string{}}
}

// WithArgs sets the guest's argv, including Args[0] (the program name).
func (c *Config) WithArgs(args ...string) *Config {
	c.args = append([]string(nil), args...)
	return c
}

// WithEnv sets one environment variable, replacing any prior value for
// the same key.
func (c *Config) WithEnv(key, value string) *Config {
	c.env[key] = value
	return c
}

// WithPreopen adds a preopened directory, resolved longest-prefix-first
// against guest paths at dispatch time (internal/handle.Preopens).
func (c *Config) WithPreopen(guestPath string, vol *memvol.Volume, root *memvol.Node) *Config {
	c.preopens = append(c.preopens, Preopen{GuestPath: guestPath, Volume: vol, Root: root})
	return c
}

// WithStdin sets the guest's stdin. Its Read may block; Run wraps it so
// that a cancelled context ends the guest's pending read even when r
// itself ignores cancellation (see suspendingReader in run.go).
func (c *Config) WithStdin(r io.Reader) *Config {
	c.stdin = r
	return c
}

// WithStdout sets the guest's stdout.
func (c *Config) WithStdout(w io.Writer) *Config {
	c.stdout = w
	return c
}

// WithStderr sets the guest's stderr.
func (c *Config) WithStderr(w io.Writer) *Config {
	c.stderr = w
	return c
}

// WithSyscallLog enables one structured trace line per dispatched syscall
// (name, errno, duration), written to w.
func (c *Config) WithSyscallLog(w io.Writer) *Config {
	c.logger = &textSyscallLogger{w: w}
	return c
}

func (c *Config) toPreopens() []handle.Preopen {
	out := make([]handle.Preopen, len(c.preopens))
	for i, p := range c.preopens {
		out[i] = handle.Preopen{GuestPath: p.GuestPath, Volume: p.Volume, Root: p.Root}
	}
	return out
}
