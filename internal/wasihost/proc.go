package wasihost

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"

	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

func registerProc(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, rval uint32) {
		// Ensure other callers observe the exit code even though this
		// function never returns to its caller, mirroring the teacher's
		// own procExitFn/sys.NewExitError convention.
		_ = mod.CloseWithExitCode(ctx, rval)
		panic(sys.NewExitError(rval))
	}).Export(wasip1.ProcExitName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, sig uint32) uint32 {
		// proc_raise was removed from WASI preview-1 (WebAssembly/WASI#136)
		// and is never meaningfully supported: it always returns ENOSYS.
		return wasip1.ErrnoNosys
	}).Export(wasip1.ProcRaiseName)
}
