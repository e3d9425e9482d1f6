// Package blockcache implements the process-wide block cache of spec.md
// §4.3: an LRU-plus-locked-list cache of fixed-size disk blocks keyed by
// (device, block#), with coalesced dirty-write flushing and a
// clone/completion-callback path for journal commits.
//
// Grounded on internal/lrucache (teacher: hash+LRU shape) and on
// beos/fs_cache.c (original_source: HASH macro, NUM_FLUSH_BLOCKS=64,
// busy/retry loop, two-phase clone-then-live flush). The lock-count and
// clone/downgrade vocabulary is also informed by lease/file_leaser_test.go
// (teacher), generalized in internal/leasepool.
package blockcache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/userlandfs/server/internal/fserrors"
	"github.com/userlandfs/server/internal/leasepool"
	"github.com/userlandfs/server/internal/metrics"
	"github.com/userlandfs/server/internal/ratelimit"
)

// ioThrottleWindow is the burst window ChooseLimiterCapacity sizes the
// token bucket against; ten seconds lets a burst cover a full
// NumFlushBlocks write without the bucket running dry mid-flush.
const ioThrottleWindow = 10 * time.Second

// NumFlushBlocks bounds how many contiguous dirty blocks are coalesced into
// a single vectored write, matching NUM_FLUSH_BLOCKS in beos/fs_cache.c.
const NumFlushBlocks = 64

// DefaultReadAhead is the default read-ahead window, per spec.md §4.3.
const DefaultReadAhead = 32 * 1024

// LargeIOThreshold is the size at which CachedRead/CachedWrite bypass the
// cache for the uncached range, per spec.md §4.3 "Coalescing".
const LargeIOThreshold = 64 * 1024

// maxEvictRetries bounds how many times Get/GetEmpty retries when the
// normal list is momentarily empty (all blocks locked or busy) before
// giving up with a Fatal error, per spec.md §4.3 "Eviction".
const maxEvictRetries = 200

const evictRetrySleep = 5 * time.Millisecond

// deviceInfo tracks the per-device registration from InitDevice.
type deviceInfo struct {
	bsize     int
	numBlocks int64 // total blocks on the device, bounds read-ahead
	resident  int   // blocks of this device currently cached
}

// Cache is the shared, process-wide block cache described by spec.md §3/§4.3.
type Cache struct {
	mu   sync.Mutex
	cond *sync.Cond // signaled whenever a block becomes not-busy or is freed

	backend  Backend
	leases   *leasepool.Pool
	throttle ratelimit.Throttle // bytes/second bound on backend I/O; nil if unthrottled

	blocks  map[Key]*Block
	normal  list // reclaimable, MRU at tail
	locked  list // held by a caller, never reclaimed

	maxBlocks          int
	maxBlocksPerDevice int
	readAhead          int

	devices map[Device]*deviceInfo
}

// Config bounds the cache's footprint, per spec.md §3 "BlockCache" fields.
type Config struct {
	MaxBlocks          int
	MaxBlocksPerDevice int
	ReadAhead          int

	// IOThrottleHz bounds flush and read-ahead backend I/O to this many
	// bytes/second. Zero disables throttling.
	IOThrottleHz float64
}

// New creates a Cache backed by the given Backend.
func New(backend Backend, cfg Config) *Cache {
	if cfg.ReadAhead <= 0 {
		cfg.ReadAhead = DefaultReadAhead
	}
	c := &Cache{
		backend:            backend,
		leases:             leasepool.New(),
		blocks:             make(map[Key]*Block),
		maxBlocks:          cfg.MaxBlocks,
		maxBlocksPerDevice: cfg.MaxBlocksPerDevice,
		readAhead:          cfg.ReadAhead,
		devices:            make(map[Device]*deviceInfo),
	}
	c.cond = sync.NewCond(&c.mu)
	if cfg.IOThrottleHz > 0 {
		if capacity, err := ratelimit.ChooseLimiterCapacity(cfg.IOThrottleHz, ioThrottleWindow); err == nil {
			c.throttle = ratelimit.NewThrottle(cfg.IOThrottleHz, capacity)
		}
	}
	return c
}

// waitThrottle blocks until n bytes' worth of backend I/O is allowed
// through, a no-op if the cache was built without IOThrottleHz.
// flushGroupLocked releases c.mu around the wait and its backend write;
// Get waits and reads with c.mu held.
func (c *Cache) waitThrottle(n int) {
	if c.throttle == nil {
		return
	}
	_ = c.throttle.Wait(context.Background(), uint64(n))
}

// InitDevice registers a device's block size and total block count, per
// spec.md §4.3: "block size is established by init_device(...); every
// later call on that device must use the same bsize" (invariant 7).
func (c *Cache) InitDevice(device Device, numBlocks int64, bsize int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.devices[device]; ok {
		if existing.bsize != bsize {
			return fserrors.Fatal(fmt.Sprintf(
				"InitDevice: device %d re-registered with bsize %d, was %d", device, bsize, existing.bsize))
		}
		existing.numBlocks = numBlocks
		return nil
	}
	c.devices[device] = &deviceInfo{bsize: bsize, numBlocks: numBlocks}
	return nil
}

func (c *Cache) deviceBsize(device Device, bsize int) (*deviceInfo, error) {
	info, ok := c.devices[device]
	if !ok {
		c.devices[device] = &deviceInfo{bsize: bsize}
		return c.devices[device], nil
	}
	if info.bsize != bsize {
		return nil, fserrors.Fatal(fmt.Sprintf(
			"block size mismatch for device %d: got %d, registered %d", device, bsize, info.bsize))
	}
	return info, nil
}

// lookupLocked finds a resident block, waiting out any "busy" window
// (spec.md §4.3 "Busy/clone corner cases": other threads asking for a busy
// block must retry with a brief sleep-and-wake loop).
func (c *Cache) lookupLocked(key Key) *Block {
	for {
		b, ok := c.blocks[key]
		if !ok {
			return nil
		}
		if !b.busy {
			return b
		}
		c.cond.Wait()
	}
}

// makeRoomLocked evicts from the normal LRU until there is space for one
// more block of the given device, per spec.md §4.3 "Eviction".
func (c *Cache) makeRoomLocked(device Device) error {
	info := c.devices[device]
	for attempt := 0; ; attempt++ {
		total := len(c.blocks)
		overGlobal := c.maxBlocks > 0 && total >= c.maxBlocks
		overDevice := c.maxBlocksPerDevice > 0 && info != nil && info.resident >= c.maxBlocksPerDevice
		if !overGlobal && !overDevice {
			return nil
		}
		victim := c.normal.popHead()
		if victim == nil {
			if attempt >= maxEvictRetries {
				return fserrors.Fatal("block cache: no evictable blocks within retry budget (caller holding all blocks locked?)")
			}
			c.mu.Unlock()
			time.Sleep(evictRetrySleep)
			c.mu.Lock()
			continue
		}
		if err := c.evictLocked(victim); err != nil {
			return err
		}
	}
}

// evictLocked writes back a victim (if dirty or cloned) and removes it
// from the hash table. The caller has already unlinked b from the normal
// list (makeRoomLocked pops it via popHead before calling this).
func (c *Cache) evictLocked(b *Block) error {
	if b.dirty || b.clone != nil {
		if err := c.flushOneLocked(b); err != nil {
			return err
		}
	}
	delete(c.blocks, b.key)
	if info := c.devices[b.key.Device]; info != nil {
		info.resident--
	}
	metrics.RecordCacheEviction()
	return nil
}

// Get returns the on-disk contents of (device, block), reading through the
// backend on a miss. The block's lock count is incremented and it is moved
// to the locked list.
func (c *Cache) Get(device Device, blockNo int64, bsize int) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.deviceBsize(device, bsize); err != nil {
		return nil, err
	}
	key := Key{Device: device, BlockNo: blockNo}

	if b := c.lookupLocked(key); b != nil {
		metrics.RecordCacheAccess(true)
		c.lockLocked(b)
		return b, nil
	}
	metrics.RecordCacheAccess(false)

	if err := c.makeRoomLocked(device); err != nil {
		return nil, err
	}

	b := newBlock(key, bsize)
	c.waitThrottle(len(b.data))
	if err := c.backend.ReadAt(device, blockNo, b.data); err != nil {
		return nil, fserrors.Cache(fmt.Sprintf("read block %d on device %d", blockNo, device), err)
	}
	c.insertLocked(b)
	c.lockLocked(b)
	return b, nil
}

// GetEmpty returns a zeroed, dirty buffer for (device, block) without
// reading from disk, per spec.md §4.3.
func (c *Cache) GetEmpty(device Device, blockNo int64, bsize int) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.deviceBsize(device, bsize); err != nil {
		return nil, err
	}
	key := Key{Device: device, BlockNo: blockNo}

	if b := c.lookupLocked(key); b != nil {
		for i := range b.data {
			b.data[i] = 0
		}
		b.dirty = true
		c.lockLocked(b)
		return b, nil
	}

	if err := c.makeRoomLocked(device); err != nil {
		return nil, err
	}

	b := newBlock(key, bsize)
	b.dirty = true
	c.insertLocked(b)
	c.lockLocked(b)
	return b, nil
}

func (c *Cache) insertLocked(b *Block) {
	c.blocks[b.key] = b
	c.normal.pushTail(b)
	if info := c.devices[b.key.Device]; info != nil {
		info.resident++
	}
}

// lockLocked increments a block's lock count, moving it onto the locked
// list the first time it becomes locked (invariant 2/3).
func (c *Cache) lockLocked(b *Block) {
	if b.lockCount == 0 {
		if b.onLocked {
			c.locked.remove(b)
		} else {
			c.normal.remove(b)
		}
		c.locked.pushTail(b)
		b.onLocked = true
	}
	b.lockCount++
}

// Release decrements a block's lock count; on reaching zero the block
// returns to the normal LRU at the MRU end (spec.md §8 property 6).
func (c *Cache) Release(device Device, blockNo int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key{Device: device, BlockNo: blockNo}
	b, ok := c.blocks[key]
	if !ok {
		return fserrors.BadRequest(fmt.Sprintf("Release: no such block (%d, %d)", device, blockNo))
	}
	if b.lockCount <= 0 {
		return fserrors.Fatal(fmt.Sprintf("Release: block (%d, %d) has lock count %d", device, blockNo, b.lockCount))
	}
	b.lockCount--
	if b.lockCount == 0 {
		c.locked.remove(b)
		b.onLocked = false
		c.normal.pushTail(b)
		c.cond.Broadcast()
	}
	return nil
}

// MarkDirty sets the dirty bit on already-resident blocks.
func (c *Cache) MarkDirty(device Device, startBlock int64, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < count; i++ {
		key := Key{Device: device, BlockNo: startBlock + int64(i)}
		b, ok := c.blocks[key]
		if !ok {
			return fserrors.BadRequest(fmt.Sprintf("MarkDirty: block (%d, %d) not resident", device, key.BlockNo))
		}
		b.dirty = true
	}
	return nil
}
