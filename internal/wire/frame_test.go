package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userlandfs/server/internal/driver"
	"github.com/userlandfs/server/internal/fscap"
)

func TestFrame_RoundTrip(t *testing.T) {
	f := Frame{
		Op:       fscap.OpRead,
		VolumeID: 3,
		Seq:      7,
		Args:     []any{driver.VNode(42), driver.Cookie(9), int64(0), int64(512)},
	}
	data, err := Encode(f)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, f.Op, got.Op)
	assert.Equal(t, f.VolumeID, got.VolumeID)
	assert.Equal(t, f.Seq, got.Seq)
	require.Len(t, got.Args, 4)
	assert.Equal(t, driver.VNode(42), got.Args[0])
	assert.Equal(t, driver.Cookie(9), got.Args[1])
}

func TestFrame_ErrorResponseRoundTrip(t *testing.T) {
	f := Frame{Op: fscap.OpOpen, HasErr: true, ErrKind: 0, ErrMessage: "boom"}
	data, err := Encode(f)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, got.HasErr)
	assert.Equal(t, 0, got.ErrKind)
	assert.Equal(t, "boom", got.ErrMessage)
}
