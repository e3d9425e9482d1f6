// Package serverhost assembles one driver's FileSystem, block cache,
// worker pool, and dispatcher registration into a single server
// lifecycle, grounded on MountedFileSystem's role in jacobsa/fuse
// (teacher): own the long-lived collaborators, start them in dependency
// order, and tear them down in reverse on Stop.
package serverhost

import (
	"fmt"

	"github.com/userlandfs/server/internal/blockcache"
	"github.com/userlandfs/server/internal/config"
	"github.com/userlandfs/server/internal/dispatcher"
	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/handler"
	"github.com/userlandfs/server/internal/logger"
	"github.com/userlandfs/server/internal/port"
	"github.com/userlandfs/server/internal/volume"
	"github.com/userlandfs/server/internal/worker"
)

// Server owns everything one driver process needs: the shared block
// cache, the FileSystem registry, the request handler, and the worker
// pool servicing its Ports.
type Server struct {
	cfg      config.Config
	Cache    *blockcache.Cache
	fs       *volume.FileSystem
	pool     *worker.Pool
	ports    []*port.Port
	registry *dispatcher.Registry
}

// New wires a Server for driverName, backed by newOps (the driver's
// operation-table factory) and backend (the block cache's device I/O).
// It does not start the worker pool or register with the dispatcher —
// call Start for that.
func New(cfg config.Config, driverName string, newOps volume.Factory, backend blockcache.Backend) (*Server, error) {
	cache := blockcache.New(backend, blockcache.Config{
		MaxBlocks:          cfg.BlockCache.MaxBlocks,
		MaxBlocksPerDevice: cfg.BlockCache.MaxBlocksPerDevice,
		ReadAhead:          cfg.BlockCache.ReadAheadBytes,
		IOThrottleHz:       cfg.BlockCache.IOThrottleHz,
	})

	attrPolicy := volume.AttrCreateOnOpen
	if cfg.AttrOpenPolicy == "create-on-first-write" {
		attrPolicy = volume.AttrCreateOnFirstWrite
	}

	fs, err := volume.NewFileSystem(driverName, newOps, attrPolicy)
	if err != nil {
		return nil, fmt.Errorf("probing driver capabilities: %w", err)
	}
	return &Server{
		cfg:   cfg,
		Cache: cache,
		fs:    fs,
	}, nil
}

// Start launches the worker pool and, if reg is non-nil, registers the
// server with the dispatcher registry, per spec.md §6's registration
// message.
func (s *Server) Start(reg *dispatcher.Registry) error {
	h := handler.New(s.fs)
	pool, ports, err := worker.NewStaticWorkerPool(s.cfg.PriorityWorkers, s.cfg.NormalWorkers, h)
	if err != nil {
		return fmt.Errorf("starting worker pool: %w", err)
	}
	s.pool = pool
	s.ports = ports

	if reg != nil {
		s.registry = reg
		portInfos := make([]dispatcher.PortInfo, len(ports))
		for i := range ports {
			portInfos[i] = dispatcher.PortInfo{
				OwnerHandle:  uint32(i),
				ClientHandle: uint32(i),
				Capacity:     uint32(ports[i].GetCapacity()),
			}
		}
		reg.Register(dispatcher.Registration{
			DriverName:   s.fs.Name(),
			Capabilities: s.fs.Capabilities(),
			Dialect:      s.cfg.FscapDialect(),
			PortInfos:    portInfos,
		})
	}

	logger.Infof("server started: driver=%s priorityWorkers=%d normalWorkers=%d", s.fs.Name(), s.cfg.PriorityWorkers, s.cfg.NormalWorkers)
	return nil
}

// Ports returns the client half of every worker's Port pair, in
// allocation order, for whatever is forwarding kernel requests in.
func (s *Server) Ports() []*port.Port { return s.ports }

// RouteForOp returns the Port a frame for op should be sent to: a
// priority-class worker's Port for control-plane ops when both classes
// exist, otherwise any worker's Port, round-robined by volume id.
func (s *Server) RouteForOp(op fscap.Op, volumeID int32) *port.Port {
	classes := s.pool.Classes()
	wantPriority := worker.IsControlPlaneOp(op)

	var candidates []int
	for i, c := range classes {
		if (c == worker.ClassPriority) == wantPriority {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		candidates = []int{0}
	}
	idx := candidates[int(uint32(volumeID))%len(candidates)]
	return s.ports[idx]
}

// Stop tears the server down in reverse dependency order: deregister
// from the dispatcher, stop the worker pool, shut down the block cache.
func (s *Server) Stop() {
	if s.registry != nil {
		s.registry.Deregister(s.fs.Name())
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.Cache != nil {
		s.Cache.Shutdown()
	}
	logger.Infof("server stopped: driver=%s", s.fs.Name())
}

// NewDefaultRegistry builds a dispatcher.Registry using cfg's
// registration TTL, swept at one tenth of the TTL.
func NewDefaultRegistry(cfg config.Config) *dispatcher.Registry {
	return dispatcher.NewRegistry(cfg.DispatcherRegistrationTTL, cfg.DispatcherRegistrationTTL/10)
}
