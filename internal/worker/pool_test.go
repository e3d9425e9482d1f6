package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userlandfs/server/internal/driver"
	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/handler"
	"github.com/userlandfs/server/internal/reqctx"
	"github.com/userlandfs/server/internal/volume"
	"github.com/userlandfs/server/internal/wire"
)

// mountOps succeeds on Mount and inherits Unsupported for everything else.
type mountOps struct {
	driver.NotImplementedOps
}

func (mountOps) Mount(ctx *reqctx.Frame, device string, flags uint32, parameters string) (driver.VNode, error) {
	return 1, nil
}

func testHandler() *handler.Handler {
	caps := fscap.NewSet(fscap.DialectCurrent)
	caps.SetOp(fscap.OpMount, true)
	fs, err := volume.NewFileSystem("testfs", func(volumeID int32) (driver.Ops, fscap.Set, error) {
		return mountOps{}, caps, nil
	}, volume.AttrCreateOnOpen)
	if err != nil {
		panic(err)
	}
	return handler.New(fs)
}

func TestNewStaticWorkerPool_Success(t *testing.T) {
	tests := []struct {
		name           string
		priorityWorker uint32
		normalWorker   uint32
	}{
		{"valid_workers", 2, 3},
		{"zero_normal_worker", 1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pool, ports, err := NewStaticWorkerPool(tc.priorityWorker, tc.normalWorker, testHandler())
			require.NoError(t, err)
			require.NotNil(t, pool)
			assert.Len(t, ports, int(tc.priorityWorker+tc.normalWorker))
			assert.Equal(t, int(tc.priorityWorker+tc.normalWorker), pool.Len())
			pool.Stop()
		})
	}
}

func TestNewStaticWorkerPool_Failure(t *testing.T) {
	pool, ports, err := NewStaticWorkerPool(0, 0, testHandler())
	assert.Error(t, err)
	assert.Nil(t, pool)
	assert.Nil(t, ports)
}

func TestPool_DispatchesMountOverItsPort(t *testing.T) {
	pool, ports, err := NewStaticWorkerPool(1, 0, testHandler())
	require.NoError(t, err)
	defer pool.Stop()

	req := wire.Frame{Op: fscap.OpMount, VolumeID: 1, Args: []any{"dev", uint32(0), ""}}
	data, err := wire.Encode(req)
	require.NoError(t, err)

	require.NoError(t, ports[0].Send(data, int32(len(data))))

	reply, err := ports[0].Receive(time.Second)
	require.NoError(t, err)

	resp, err := wire.Decode(reply)
	require.NoError(t, err)
	assert.False(t, resp.HasErr)
}

func TestPool_StopIsOrderedAndIdempotentWithClose(t *testing.T) {
	pool, ports, err := NewStaticWorkerPool(1, 1, testHandler())
	require.NoError(t, err)
	assert.Equal(t, []Class{ClassPriority, ClassNormal}, pool.Classes())

	pool.Stop()
	_, err = ports[0].Receive(0)
	assert.Error(t, err)

	assert.NotPanics(t, func() {
		pool.Stop()
		ports[0].Close()
	})
}
