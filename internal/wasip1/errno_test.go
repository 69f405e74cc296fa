package wasip1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrnoNameKnownAndUnknown(t *testing.T) {
	require.Equal(t, "ESUCCESS", ErrnoName(ErrnoSuccess))
	require.Equal(t, "ENOENT", ErrnoName(ErrnoNoent))
	require.Equal(t, "ENOTCAPABLE", ErrnoName(ErrnoNotcapable))
	require.Equal(t, "E?", ErrnoName(Errno(len(errnoNames)+1)))
}
