package wasihost

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1mem"
)

func registerArgsEnviron(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, argv, argvBuf uint32) uint32 {
		return traced(h, wasip1.ArgsGetName, func() wasip1.Errno {
			if wasip1mem.WriteOffsetsAndNullTerminatedValues(mod.Memory(), argsBytes(h.Args), argv, argvBuf) {
				return wasip1.ErrnoSuccess
			}
			return wasip1.ErrnoFault
		})
	}).Export(wasip1.ArgsGetName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, resultArgc, resultArgvLen uint32) uint32 {
		return traced(h, wasip1.ArgsSizesGetName, func() wasip1.Errno {
			count, total := wasip1mem.SizesOf(argsBytes(h.Args))
			if !mod.Memory().WriteUint32Le(resultArgc, count) || !mod.Memory().WriteUint32Le(resultArgvLen, total) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.ArgsSizesGetName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, environ, environBuf uint32) uint32 {
		return traced(h, wasip1.EnvironGetName, func() wasip1.Errno {
			if wasip1mem.WriteOffsetsAndNullTerminatedValues(mod.Memory(), environBytes(h.Env), environ, environBuf) {
				return wasip1.ErrnoSuccess
			}
			return wasip1.ErrnoFault
		})
	}).Export(wasip1.EnvironGetName)

	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, resultCount, resultBufLen uint32) uint32 {
		return traced(h, wasip1.EnvironSizesGetName, func() wasip1.Errno {
			count, total := wasip1mem.SizesOf(environBytes(h.Env))
			if !mod.Memory().WriteUint32Le(resultCount, count) || !mod.Memory().WriteUint32Le(resultBufLen, total) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.EnvironSizesGetName)
}

func argsBytes(args []string) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = []byte(a)
	}
	return out
}

// environBytes formats env entries as "KEY=VALUE", per spec.md §4.6, in a
// deterministic (sorted by key) order since Go map iteration is not.
func environBytes(env map[string]string) [][]byte {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]byte, 0, len(env))
	for _, k := range keys {
		out = append(out, []byte(k+"="+env[k]))
	}
	return out
}
