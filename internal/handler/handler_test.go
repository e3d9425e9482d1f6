package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userlandfs/server/internal/driver"
	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/fserrors"
	"github.com/userlandfs/server/internal/reqctx"
	"github.com/userlandfs/server/internal/volume"
	"github.com/userlandfs/server/internal/wire"
)

type testOps struct {
	driver.NotImplementedOps
	data map[driver.VNode][]byte
}

func (o *testOps) Mount(ctx *reqctx.Frame, device string, flags uint32, parameters string) (driver.VNode, error) {
	return 1, nil
}

func (o *testOps) Unmount(ctx *reqctx.Frame) error { return nil }

func (o *testOps) Open(ctx *reqctx.Frame, node driver.VNode, openMode int32) (driver.Cookie, error) {
	return 100, nil
}

func (o *testOps) Close(ctx *reqctx.Frame, node driver.VNode, cookie driver.Cookie) error { return nil }
func (o *testOps) FreeCookie(ctx *reqctx.Frame, node driver.VNode, cookie driver.Cookie) error {
	return nil
}

func (o *testOps) Read(ctx *reqctx.Frame, node driver.VNode, cookie driver.Cookie, pos, size int64) ([]byte, error) {
	d := o.data[node]
	if pos >= int64(len(d)) {
		return nil, nil
	}
	end := pos + size
	if end > int64(len(d)) {
		end = int64(len(d))
	}
	return d[pos:end], nil
}

func newTestHandler(t *testing.T) (*Handler, *volume.FileSystem, *testOps) {
	var ops *testOps
	caps := fscap.NewSet(fscap.DialectCurrent)
	for _, op := range []fscap.Op{fscap.OpMount, fscap.OpUnmount, fscap.OpOpen, fscap.OpClose, fscap.OpFreeCookie, fscap.OpRead} {
		caps.SetOp(op, true)
	}
	fs, err := volume.NewFileSystem("testfs", func(volumeID int32) (driver.Ops, fscap.Set, error) {
		ops = &testOps{data: map[driver.VNode][]byte{1: []byte("hello world")}}
		return ops, caps, nil
	}, volume.AttrCreateOnOpen)
	require.NoError(t, err)
	return New(fs), fs, ops
}

func TestHandler_MountThenReadThenUnmount(t *testing.T) {
	h, fs, _ := newTestHandler(t)
	ctx := &reqctx.Frame{}

	resp := h.Dispatch(ctx, wire.Frame{Op: fscap.OpMount, VolumeID: 9, Args: []any{"dev", uint32(0), ""}})
	require.False(t, resp.HasErr)
	require.Len(t, resp.Results, 1)
	root := resp.Results[0].(driver.VNode)
	assert.Equal(t, driver.VNode(1), root)

	openResp := h.Dispatch(ctx, wire.Frame{Op: fscap.OpOpen, VolumeID: 9, Args: []any{root, int32(0)}})
	require.False(t, openResp.HasErr)
	cookie := openResp.Results[0].(driver.Cookie)

	readResp := h.Dispatch(ctx, wire.Frame{Op: fscap.OpRead, VolumeID: 9, Args: []any{root, cookie, int64(0), int64(5)}})
	require.False(t, readResp.HasErr)
	assert.Equal(t, []byte("hello"), readResp.Results[0].([]byte))

	closeResp := h.Dispatch(ctx, wire.Frame{Op: fscap.OpClose, VolumeID: 9, Args: []any{root, cookie}})
	assert.False(t, closeResp.HasErr)
	freeResp := h.Dispatch(ctx, wire.Frame{Op: fscap.OpFreeCookie, VolumeID: 9, Args: []any{root, cookie}})
	assert.False(t, freeResp.HasErr)

	unmountResp := h.Dispatch(ctx, wire.Frame{Op: fscap.OpUnmount, VolumeID: 9})
	assert.False(t, unmountResp.HasErr)
	_, ok := fs.Volume(9)
	assert.False(t, ok)
}

func TestHandler_CapabilityGateRejectsBeforeDriver(t *testing.T) {
	h, _, _ := newTestHandler(t)
	ctx := &reqctx.Frame{}

	resp := h.Dispatch(ctx, wire.Frame{Op: fscap.OpMount, VolumeID: 1, Args: []any{"dev", uint32(0), ""}})
	require.False(t, resp.HasErr)

	// WriteStat's capability bit was never set.
	resp2 := h.Dispatch(ctx, wire.Frame{Op: fscap.OpWriteStat, VolumeID: 1, Args: []any{driver.VNode(1), driver.Stat{}, driver.StatMask(0)}})
	require.True(t, resp2.HasErr)
	assert.Equal(t, int(fserrors.KindUnsupportedOperation), resp2.ErrKind)
}

func TestHandler_UnknownVolumeIsBadRequest(t *testing.T) {
	h, _, _ := newTestHandler(t)
	resp := h.Dispatch(&reqctx.Frame{}, wire.Frame{Op: fscap.OpRead, VolumeID: 404})
	require.True(t, resp.HasErr)
	assert.Equal(t, int(fserrors.KindBadRequest), resp.ErrKind)
}
