package volume

import (
	"fmt"
	"sort"
	"sync"

	"github.com/userlandfs/server/internal/blockcache"
)

// Driver bundles what a driver package registers under one name: the
// operation-table Factory and the block cache Backend its volumes read
// and write through. NewBackend may be nil, in which case the server
// host runs without a shared block cache (a driver doing its own I/O).
type Driver struct {
	Factory    Factory
	NewBackend func() blockcache.Backend
}

// driverRegistry is the process-wide table of Drivers a driver package
// makes available under a name, mirroring the way database/sql drivers
// register themselves from an init function rather than being looked up
// by path at runtime.
var driverRegistry = struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}{drivers: make(map[string]Driver)}

// Register makes d available under name. It panics on a duplicate name
// or a nil Factory, matching database/sql.Register's contract — a driver
// package calling Register twice for the same name is a programming error,
// not a runtime condition to recover from.
func Register(name string, d Driver) {
	driverRegistry.mu.Lock()
	defer driverRegistry.mu.Unlock()

	if d.Factory == nil {
		panic("volume: Register factory is nil")
	}
	if _, dup := driverRegistry.drivers[name]; dup {
		panic("volume: Register called twice for driver " + name)
	}
	driverRegistry.drivers[name] = d
}

// Lookup returns the Driver registered under name, if any.
func Lookup(name string) (Driver, bool) {
	driverRegistry.mu.RLock()
	defer driverRegistry.mu.RUnlock()
	d, ok := driverRegistry.drivers[name]
	return d, ok
}

// Drivers returns the names of every registered driver, sorted, for
// --help output and diagnostics.
func Drivers() []string {
	driverRegistry.mu.RLock()
	defer driverRegistry.mu.RUnlock()
	out := make([]string, 0, len(driverRegistry.drivers))
	for name := range driverRegistry.drivers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// UnknownDriverError reports that driverName has no registered Factory.
type UnknownDriverError struct {
	DriverName string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("volume: unknown driver %q", e.DriverName)
}
