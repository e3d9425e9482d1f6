package serverhost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userlandfs/server/internal/blockcache"
	"github.com/userlandfs/server/internal/config"
	"github.com/userlandfs/server/internal/driver"
	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/reqctx"
	"github.com/userlandfs/server/internal/wire"
)

type noopBackend struct{}

func (noopBackend) ReadAt(device blockcache.Device, startBlock int64, buf []byte) error { return nil }
func (noopBackend) WriteAt(device blockcache.Device, startBlock int64, buf []byte) error { return nil }

type fakeOps struct {
	driver.NotImplementedOps
}

func (fakeOps) Mount(ctx *reqctx.Frame, device string, flags uint32, parameters string) (driver.VNode, error) {
	return 1, nil
}
func (fakeOps) Unmount(ctx *reqctx.Frame) error { return nil }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.DriverName = "example-fs"
	cfg.PriorityWorkers = 1
	cfg.NormalWorkers = 1
	cfg.DispatcherRegistrationTTL = time.Minute
	return cfg
}

func newTestServer(t *testing.T) *Server {
	cfg := testConfig()
	caps := fscap.NewSet(cfg.FscapDialect())
	caps.SetOp(fscap.OpMount, true)
	caps.SetOp(fscap.OpUnmount, true)

	srv, err := New(cfg, cfg.DriverName, func(volumeID int32) (driver.Ops, fscap.Set, error) {
		return fakeOps{}, caps, nil
	}, noopBackend{})
	require.NoError(t, err)
	require.NoError(t, srv.Start(nil))
	t.Cleanup(srv.Stop)
	return srv
}

func TestServer_StartWiresWorkerPoolAndAcceptsMount(t *testing.T) {
	srv := newTestServer(t)

	p := srv.RouteForOp(fscap.OpMount, 1)
	req := wire.Frame{Op: fscap.OpMount, VolumeID: 1, Args: []any{"dev", uint32(0), ""}}
	data, err := wire.Encode(req)
	require.NoError(t, err)
	require.NoError(t, p.Send(data, int32(len(data))))

	reply, err := p.Receive(time.Second)
	require.NoError(t, err)
	resp, err := wire.Decode(reply)
	require.NoError(t, err)
	assert.False(t, resp.HasErr)
}

func TestServer_RouteForOpPrefersPriorityForControlPlane(t *testing.T) {
	srv := newTestServer(t)

	mountPort := srv.RouteForOp(fscap.OpMount, 0)
	readPort := srv.RouteForOp(fscap.OpRead, 0)

	assert.NotSame(t, mountPort, readPort)
}

func TestServer_StartRegistersWithDispatcher(t *testing.T) {
	cfg := testConfig()
	reg := NewDefaultRegistry(cfg)
	defer reg.Stop()

	caps := fscap.NewSet(cfg.FscapDialect())
	caps.SetOp(fscap.OpMount, true)
	srv, err := New(cfg, cfg.DriverName, func(volumeID int32) (driver.Ops, fscap.Set, error) {
		return fakeOps{}, caps, nil
	}, noopBackend{})
	require.NoError(t, err)
	require.NoError(t, srv.Start(reg))
	defer srv.Stop()

	got, ok := reg.Lookup(cfg.DriverName)
	require.True(t, ok)
	assert.Len(t, got.PortInfos, 2)
	assert.True(t, got.Capabilities.Get(fscap.OpMount), "registration must carry the driver's real capability set")
}
