// Package dispatcher is the registry-side half of spec.md §4.7's
// dispatcher: the driver-name -> {team, capabilities, port infos}
// bookkeeping the real out-of-process dispatcher would keep, exposed
// here as an in-process collaborator so the registration message and
// heartbeat-expiry behavior can be exercised without a second OS
// process.
//
// Grounded on pkg/storage/boltdb.go (warren): a *bolt.DB opened once,
// bucket-per-entity, JSON-marshalled records, used here as an optional
// durable snapshot of the registry so a respawned dispatcher stub can
// recover driver->team mappings across restarts. Expiry itself is
// internal/ttlcache, standing in for the original's death-watch on the
// server team (Registration.ServerTeamID exists so a restored entry still
// carries the extinct team's id for diagnostics, even though nothing
// here can watch a dead process).
package dispatcher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/fserrors"
	"github.com/userlandfs/server/internal/ttlcache"
)

var registrySnapshotBucket = []byte("registrations")

// PortInfo is one Port pair's handles and capacity, per spec.md §6's
// registration message.
type PortInfo struct {
	OwnerHandle  uint32 `json:"owner_handle"`
	ClientHandle uint32 `json:"client_handle"`
	Capacity     uint32 `json:"capacity"`
}

// Registration is the registration message of spec.md §6: a driver name,
// its capability bitmap and dialect, the Port pairs it's listening on,
// and the OS team id hosting it.
type Registration struct {
	DriverName     string      `json:"driver_name"`
	Capabilities   fscap.Set   `json:"-"`
	CapabilityBits []byte      `json:"capability_bits"`
	Dialect        fscap.Dialect `json:"dialect"`
	PortInfos      []PortInfo  `json:"port_infos"`
	ServerTeamID   uint32      `json:"server_team_id"`
	CorrelationID  uuid.UUID   `json:"correlation_id"`
}

// Registry tracks live driver registrations, expiring one if no
// heartbeat re-registration arrives within ttl.
type Registry struct {
	entries *ttlcache.Cache[string, Registration]
	db      *bolt.DB
}

// NewRegistry creates a Registry whose entries expire ttl after their
// last heartbeat, swept every cleanupInterval.
func NewRegistry(ttl, cleanupInterval time.Duration) *Registry {
	return &Registry{entries: ttlcache.New[string, Registration](ttl, cleanupInterval)}
}

// OpenSnapshot attaches a bbolt-backed snapshot store at path, creating
// the registrations bucket if absent. Snapshot/Restore are no-ops until
// this is called.
func (r *Registry) OpenSnapshot(path string) error {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return fmt.Errorf("opening dispatcher snapshot: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(registrySnapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("creating registrations bucket: %w", err)
	}
	r.db = db
	return nil
}

// Close releases the snapshot store, if one is open.
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Register records reg (or refreshes its expiry, on a repeat
// registration from the same driver name — spec.md §4.7's heartbeat),
// and assigns a fresh CorrelationID if reg didn't carry one.
func (r *Registry) Register(reg Registration) Registration {
	if reg.CorrelationID == uuid.Nil {
		reg.CorrelationID = uuid.New()
	}
	reg.CapabilityBits = reg.Capabilities.Bytes()
	r.entries.Set(reg.DriverName, reg)
	return reg
}

// Heartbeat refreshes driverName's expiry without changing its recorded
// state, failing if the driver was never registered or has already
// expired.
func (r *Registry) Heartbeat(driverName string) error {
	reg, ok := r.entries.Get(driverName)
	if !ok {
		return fserrors.BadRequest(fmt.Sprintf("driver %q is not registered", driverName))
	}
	r.entries.Set(driverName, reg)
	return nil
}

// Lookup returns driverName's current registration, if live.
func (r *Registry) Lookup(driverName string) (Registration, bool) {
	return r.entries.Get(driverName)
}

// Deregister removes driverName's registration immediately, rather than
// waiting for its TTL to lapse (a clean Unmount/shutdown path).
func (r *Registry) Deregister(driverName string) {
	r.entries.Delete(driverName)
}

// Snapshot persists the live registrations of the named drivers to the
// bbolt store opened via OpenSnapshot. Names with no live registration
// are skipped.
func (r *Registry) Snapshot(names []string) error {
	if r.db == nil {
		return fserrors.Fatal("dispatcher snapshot store is not open")
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(registrySnapshotBucket)
		for _, name := range names {
			reg, ok := r.entries.Get(name)
			if !ok {
				continue
			}
			data, err := json.Marshal(reg)
			if err != nil {
				return fmt.Errorf("marshalling registration %q: %w", name, err)
			}
			if err := b.Put([]byte(name), data); err != nil {
				return fmt.Errorf("writing registration %q: %w", name, err)
			}
		}
		return nil
	})
}

// Restore reloads every snapshotted registration into the live table,
// so a respawned dispatcher stub recovers driver->team mappings across a
// restart. Restored entries get a fresh TTL window starting now.
func (r *Registry) Restore() error {
	if r.db == nil {
		return fserrors.Fatal("dispatcher snapshot store is not open")
	}
	return r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(registrySnapshotBucket)
		return b.ForEach(func(k, v []byte) error {
			var reg Registration
			if err := json.Unmarshal(v, &reg); err != nil {
				return fmt.Errorf("unmarshalling registration %q: %w", k, err)
			}
			reg.Capabilities = fscap.NewSet(reg.Dialect)
			reg.Capabilities.SetFromBytes(reg.CapabilityBits)
			r.entries.Set(reg.DriverName, reg)
			return nil
		})
	})
}

// Stop halts the registry's background expiry sweep.
func (r *Registry) Stop() {
	r.entries.Stop()
}
