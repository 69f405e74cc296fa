package wasihost

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/wasi-fs-host/internal/handle"
	"github.com/tetratelabs/wasi-fs-host/internal/memvol"
	"github.com/tetratelabs/wasi-fs-host/internal/wasip1"
)

func TestErrnoOfMapsMemvolSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want wasip1.Errno
	}{
		{"nil", nil, wasip1.ErrnoSuccess},
		{"not exist", memvol.ErrNotExist, wasip1.ErrnoNoent},
		{"exist", memvol.ErrExist, wasip1.ErrnoExist},
		{"not dir", memvol.ErrNotDir, wasip1.ErrnoNotdir},
		{"is dir", memvol.ErrIsDir, wasip1.ErrnoIsdir},
		{"not empty", memvol.ErrNotEmpty, wasip1.ErrnoNotempty},
		{"not capable", memvol.ErrNotCapable, wasip1.ErrnoNotcapable},
		{"invalid", memvol.ErrInvalid, wasip1.ErrnoInval},
		{"stream closed", handle.ErrStreamClosed, wasip1.ErrnoBadf},
		{"unknown", errUnknown{}, wasip1.ErrnoIo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, errnoOf(tc.err))
		})
	}
}

type errUnknown struct{}

func (errUnknown) Error() string { return "boom" }
