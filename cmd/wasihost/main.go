// Command wasihost compiles and runs a WASI preview-1 guest module against
// an in-memory file system seeded (optionally) from real host directories,
// per SPEC_FULL.md's Domain Stack CLI section. The WASM loader itself
// (validation, compilation strategy) is wazero's; this command only
// wires it to wasifshost.Run.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"

	wasifshost "github.com/tetratelabs/wasi-fs-host"
	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wasihost",
		Short:         "Run a WASI preview-1 guest against an in-memory file system",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var mounts []string
	var trace bool

	cmd := &cobra.Command{
		Use:   "run <wasm-file> [-- guest-args...]",
		Short: "Instantiate and run a compiled WASI preview-1 module",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGuest(cmd, args[0], args[1:], mounts, trace)
		},
	}
	cmd.Flags().StringArrayVarP(&mounts, "dir", "d", nil, "guest-path=host-path directory, loaded once into the in-memory volume at startup (repeatable)")
	cmd.Flags().BoolVar(&trace, "trace", false, "log one line per dispatched syscall to stderr")
	return cmd
}

func runGuest(cmd *cobra.Command, wasmPath string, guestArgs, mounts []string, trace bool) error {
	ctx := context.Background()
	code, err := os.ReadFile(wasmPath)
	if err != nil {
		return err
	}

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, code)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", wasmPath, err)
	}

	cfg := wasifshost.NewConfig().
		WithArgs(append([]string{filepath.Base(wasmPath)}, guestArgs...)...).
		WithStdin(cmd.InOrStdin()).
		WithStdout(cmd.OutOrStdout()).
		WithStderr(cmd.ErrOrStderr())
	if trace {
		cfg = cfg.WithSyscallLog(cmd.ErrOrStderr())
	}

	for _, m := range mounts {
		guestPath, hostPath, err := splitMount(m)
		if err != nil {
			return err
		}
		vol := memvol.New(nil)
		if err := loadHostDir(vol, hostPath); err != nil {
			return fmt.Errorf("loading %s: %w", hostPath, err)
		}
		cfg = cfg.WithPreopen(guestPath, vol, vol.Root())
	}

	exitCode, err := wasifshost.Run(ctx, r, compiled, cfg)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

func splitMount(spec string) (guestPath, hostPath string, err error) {
	i := strings.IndexByte(spec, '=')
	if i < 0 {
		return "", "", fmt.Errorf("invalid --dir %q, expected guest-path=host-path", spec)
	}
	return spec[:i], spec[i+1:], nil
}

// loadHostDir copies a host directory tree into vol once, at startup: the
// guest only ever sees and mutates the in-memory copy afterward, never the
// real file system (spec.md's MemVolume is never backed by a real one).
func loadHostDir(vol *memvol.Volume, hostPath string) error {
	return filepath.WalkDir(hostPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(hostPath, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		guestRel := filepath.ToSlash(rel)
		if d.IsDir() {
			return vol.Mkdir(vol.Root(), guestRel, true)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return vol.WriteFile(vol.Root(), guestRel, data, true)
	})
}
