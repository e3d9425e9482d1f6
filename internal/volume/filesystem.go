package volume

import (
	"sync"

	"github.com/userlandfs/server/internal/driver"
	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/fserrors"
)

// Factory creates a fresh operation table for one mounted volume. A real
// driver package registers one Factory per filesystem type it implements.
type Factory func(volumeID int32) (driver.Ops, fscap.Set, error)

// capabilityProbeVolumeID is passed to a Factory exactly once, at
// FileSystem construction, to learn the driver's capability set without
// mounting a real volume. No Volume is ever created for it; the returned
// Ops value is discarded.
const capabilityProbeVolumeID int32 = -1

// FileSystem is the process-wide registry of mounted Volumes for one
// driver, per FileSystem.h (original_source): CreateVolume/DeleteVolume
// are the two operations the original abstract class requires, generalized
// here to also track the created Volumes so the runtime can look one up by
// ID when handling a request.
//
// FileSystem owns the driver's capability set (spec.md §4.4): it is
// computed once from newOps at construction, the same Set every later
// CreateVolume call hands to the Volumes it mints, so a caller such as
// serverhost.Server can register the driver's real capabilities before
// any volume is mounted.
type FileSystem struct {
	name       string
	newOps     Factory
	attrPolicy AttrOpenPolicy
	caps       fscap.Set

	mu      sync.RWMutex
	volumes map[int32]*Volume
}

// NewFileSystem creates a FileSystem backed by newOps, the constructor a
// driver package supplies for its operation table. It calls newOps once
// to learn the driver's capability set; a Factory that fails on that
// probe call fails construction.
func NewFileSystem(name string, newOps Factory, attrPolicy AttrOpenPolicy) (*FileSystem, error) {
	_, caps, err := newOps(capabilityProbeVolumeID)
	if err != nil {
		return nil, fserrors.Driver(err)
	}
	return &FileSystem{
		name:       name,
		newOps:     newOps,
		attrPolicy: attrPolicy,
		caps:       caps,
		volumes:    make(map[int32]*Volume),
	}, nil
}

func (fs *FileSystem) Name() string { return fs.name }

// Capabilities returns the driver's load-time capability set, per
// spec.md §4.4. This is the set serverhost.Server registers with the
// dispatcher, independent of any particular mounted Volume.
func (fs *FileSystem) Capabilities() fscap.Set { return fs.caps }

// CreateVolume mounts a new Volume with the given ID, per FileSystem.h.
func (fs *FileSystem) CreateVolume(volumeID int32) (*Volume, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.volumes[volumeID]; exists {
		return nil, fserrors.BadRequest("volume already mounted")
	}
	ops, caps, err := fs.newOps(volumeID)
	if err != nil {
		return nil, fserrors.Driver(err)
	}
	v := New(volumeID, ops, caps, fs.attrPolicy)
	fs.volumes[volumeID] = v
	return v, nil
}

// DeleteVolume unmounts and forgets a Volume, per FileSystem.h.
func (fs *FileSystem) DeleteVolume(v *Volume) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.volumes[v.ID()]; !ok {
		return fserrors.BadRequest("volume not mounted on this file system")
	}
	delete(fs.volumes, v.ID())
	return nil
}

// Volume looks up a mounted Volume by ID.
func (fs *FileSystem) Volume(volumeID int32) (*Volume, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	v, ok := fs.volumes[volumeID]
	return v, ok
}

// Volumes returns every currently mounted Volume, for Sync-all/shutdown
// sweeps.
func (fs *FileSystem) Volumes() []*Volume {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]*Volume, 0, len(fs.volumes))
	for _, v := range fs.volumes {
		out = append(out, v)
	}
	return out
}
