package wasihost

import (
	"context"
	"crypto/rand"

	"github.com/tetratelabs/wazero/api"

	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

func registerRandom(b Builder, h *Host) {
	b.NewFunctionBuilder().WithFunc(func(ctx context.Context, mod api.Module, buf, bufLen uint32) uint32 {
		return traced(h, wasip1.RandomGetName, func() wasip1.Errno {
			randBytes := make([]byte, bufLen)
			if _, err := rand.Read(randBytes); err != nil {
				return wasip1.ErrnoIo
			}
			if !mod.Memory().Write(buf, randBytes) {
				return wasip1.ErrnoFault
			}
			return wasip1.ErrnoSuccess
		})
	}).Export(wasip1.RandomGetName)
}
