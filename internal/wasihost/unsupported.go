package wasihost

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

// registerUnsupported wires imports the spec explicitly leaves
// unsupported (Open Question 2: symlinks; networking is an explicit
// non-goal) so a guest that probes for them gets a well-formed errno
// instead of an unresolved-import trap.
func registerUnsupported(b Builder, h *Host) {
	notsup := func(name string, paramTypes ...api.ValueType) {
		b.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				stack[0] = uint64(wasip1.ErrnoNotsup)
			}), paramTypes, []api.ValueType{api.ValueTypeI32}).
			Export(name)
	}

	i32 := api.ValueTypeI32
	i64 := api.ValueTypeI64

	notsup(wasip1.PathSymlinkName, i32, i32, i32, i32, i32)
	notsup(wasip1.PathReadlinkName, i32, i32, i32, i32, i32, i32)
	notsup(wasip1.PathLinkName, i32, i32, i32, i32, i32, i32, i32)
	notsup(wasip1.FdFdstatSetRightsName, i32, i64, i64)
	notsup(wasip1.SockAcceptName, i32, i32, i32)
	notsup(wasip1.SockRecvName, i32, i32, i32, i32, i32, i32)
	notsup(wasip1.SockSendName, i32, i32, i32, i32, i32)
	notsup(wasip1.SockShutdownName, i32, i32)
}
