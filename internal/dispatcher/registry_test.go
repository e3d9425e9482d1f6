package dispatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userlandfs/server/internal/fscap"
)

func sampleRegistration(name string) Registration {
	caps := fscap.NewSet(fscap.DialectCurrent)
	caps.SetOp(fscap.OpMount, true)
	caps.SetOp(fscap.OpRead, true)
	return Registration{
		DriverName:   name,
		Capabilities: caps,
		Dialect:      fscap.DialectCurrent,
		PortInfos:    []PortInfo{{OwnerHandle: 1, ClientHandle: 2, Capacity: 4096}},
		ServerTeamID: 42,
	}
}

func TestRegistry_RegisterThenLookup(t *testing.T) {
	r := NewRegistry(time.Minute, time.Hour)
	defer r.Stop()

	reg := r.Register(sampleRegistration("example-fs"))
	assert.NotEqual(t, "", reg.CorrelationID.String())

	got, ok := r.Lookup("example-fs")
	require.True(t, ok)
	assert.Equal(t, "example-fs", got.DriverName)
	assert.True(t, got.Capabilities.Get(fscap.OpMount))
	assert.False(t, got.Capabilities.Get(fscap.OpWrite))
}

func TestRegistry_ExpiresWithoutHeartbeat(t *testing.T) {
	r := NewRegistry(20*time.Millisecond, 5*time.Millisecond)
	defer r.Stop()

	r.Register(sampleRegistration("example-fs"))
	time.Sleep(40 * time.Millisecond)

	_, ok := r.Lookup("example-fs")
	assert.False(t, ok)
}

func TestRegistry_HeartbeatRefreshesExpiry(t *testing.T) {
	r := NewRegistry(30*time.Millisecond, 5*time.Millisecond)
	defer r.Stop()

	r.Register(sampleRegistration("example-fs"))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, r.Heartbeat("example-fs"))
	time.Sleep(20 * time.Millisecond)

	_, ok := r.Lookup("example-fs")
	assert.True(t, ok)
}

func TestRegistry_HeartbeatUnknownDriverFails(t *testing.T) {
	r := NewRegistry(time.Minute, time.Hour)
	defer r.Stop()

	err := r.Heartbeat("never-registered")
	assert.Error(t, err)
}

func TestRegistry_DeregisterRemovesImmediately(t *testing.T) {
	r := NewRegistry(time.Minute, time.Hour)
	defer r.Stop()

	r.Register(sampleRegistration("example-fs"))
	r.Deregister("example-fs")

	_, ok := r.Lookup("example-fs")
	assert.False(t, ok)
}

func TestRegistry_SnapshotAndRestoreSurviveRestart(t *testing.T) {
	dbPath := t.TempDir() + "/registry.db"

	r1 := NewRegistry(time.Minute, time.Hour)
	require.NoError(t, r1.OpenSnapshot(dbPath))
	r1.Register(sampleRegistration("example-fs"))
	require.NoError(t, r1.Snapshot([]string{"example-fs"}))
	require.NoError(t, r1.Close())
	r1.Stop()

	r2 := NewRegistry(time.Minute, time.Hour)
	defer r2.Stop()
	require.NoError(t, r2.OpenSnapshot(dbPath))
	defer r2.Close()
	require.NoError(t, r2.Restore())

	got, ok := r2.Lookup("example-fs")
	require.True(t, ok)
	assert.Equal(t, uint32(42), got.ServerTeamID)
	assert.True(t, got.Capabilities.Get(fscap.OpMount))
	assert.True(t, got.Capabilities.Get(fscap.OpRead))
	assert.False(t, got.Capabilities.Get(fscap.OpWrite))
}
