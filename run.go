package wasifshost

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/sys"

	"github.com/tetratelabs/wasi-fs-host/internal/handle"
	"github.com/tetratelabs/wasi-fs-host/internal/openfiles"
	"github.com/tetratelabs/wasi-fs-host/internal/wasihost"
)

// exitCodeCancelled is the process exit code a cancelled Run reports,
// matching the SIGINT convention (128+SIGINT) a shell assigns an
// interrupted child.
const exitCodeCancelled = 130

// Run instantiates compiled against r using cfg's args/env/preopens/stdio,
// invokes its _start entrypoint, and returns the proc_exit code (0 on
// normal return). r must have been created with
// wazero.NewRuntimeConfig().WithCloseOnContextDone(true) for cancelling
// ctx to actually interrupt an in-progress guest call; Run still maps its
// own suspension points (stdin read, poll_oneoff, sched_yield) to
// ErrnoIntr regardless of that runtime option.
func Run(ctx context.Context, r wazero.Runtime, compiled wazero.CompiledModule, cfg *Config) (exitCode int, err error) {
	preopens := cfg.toPreopens()
	fds := openfiles.New(preopens)

	h := &wasihost.Host{
		FDs:     fds,
		Preopen: handle.NewPreopens(preopens...),
		Args:    cfg.args,
		Env:     cfg.env,
		Stdin:   suspendingReader{r: cfg.stdin},
		Stdout:  writerOrDiscard(cfg.stdout),
		Stderr:  writerOrDiscard(cfg.stderr),
		Clock:   newSystemClock(),
		Logger:  cfg.logger,
	}

	if _, err := wasihost.Instantiate(ctx, r, h); err != nil {
		return 0, err
	}

	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return exitCodeOf(err)
	}
	defer mod.Close(ctx)

	start := mod.ExportedFunction("_start")
	if start == nil {
		return 0, errors.New("wasifshost: compiled module exports no _start")
	}

	_, callErr := start.Call(ctx)
	fds.CloseAll()
	return exitCodeOf(callErr)
}

// exitCodeOf classifies a guest-call error into the exit code Run
// reports: a normal proc_exit surfaces its own code; a context
// cancellation/deadline, whether wazero's WithCloseOnContextDone reports it
// as an ExitError with ExitCodeContextCanceled/ExitCodeDeadlineExceeded or
// it surfaces as a wrapped context error, reports exitCodeCancelled; any
// other error is a guest trap, returned as a Go error per spec.md §6. An
// ErrnoIntr returned to the guest is not itself an error here: the guest
// sees it as an ordinary syscall result.
func exitCodeOf(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case sys.ExitCodeContextCanceled, sys.ExitCodeDeadlineExceeded:
			return exitCodeCancelled, nil
		default:
			return int(exitErr.ExitCode()), nil
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return exitCodeCancelled, nil
	}
	return 0, err
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// suspendingReader adapts a plain io.Reader (which may not itself respect
// context cancellation) to wasihost.Reader's cancellable Read, by parking
// the calling goroutine on a channel receive that also selects on
// ctx.Done() — the goroutine-parking suspension bridge of SPEC_FULL.md §9.
type suspendingReader struct{ r io.Reader }

func (s suspendingReader) Read(ctx context.Context, p []byte) (int, error) {
	if s.r == nil {
		return 0, io.EOF
	}
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := s.r.Read(p)
		done <- result{n, err}
	}()
	select {
	case res := <-done:
		return res.n, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// systemClock backs wasihost.Clock with the real wall clock and a
// monotonic reading anchored at construction, matching WASI's
// CLOCK_MONOTONIC contract (never runs backward, unaffected by wall-clock
// adjustments) via time.Time's retained monotonic component.
type systemClock struct{ start time.Time }

func newSystemClock() systemClock { return systemClock{start: time.Now()} }

func (c systemClock) Walltime() (sec int64, nsec int32) {
	t := time.Now()
	return t.Unix(), int32(t.Nanosecond())
}

func (systemClock) WalltimeResolution() int64 { return int64(time.Microsecond) }

func (c systemClock) Nanotime() int64 { return int64(time.Since(c.start)) }

func (systemClock) NanotimeResolution() int64 { return 1 }
