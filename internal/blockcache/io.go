package blockcache

import (
	"fmt"

	"github.com/userlandfs/server/internal/fserrors"
)

// CachedRead fills buf (count*bsize bytes) from blocks starting at
// startBlock, pulling each block through Get/Release. On a total miss it
// extends the underlying read to the configured read-ahead window, per
// spec.md §4.3 "Read-ahead", stopping at any already-resident block or the
// device's declared block count.
func (c *Cache) CachedRead(device Device, startBlock int64, buf []byte, count int, bsize int) error {
	if len(buf) < count*bsize {
		return fserrors.BadRequest("CachedRead: buffer too small")
	}

	if count*bsize >= LargeIOThreshold {
		return c.largeRead(device, startBlock, buf, count, bsize)
	}

	missed := c.allMissing(device, startBlock, count)
	readAheadCount := count
	if missed {
		readAheadCount = c.extendForReadAhead(device, startBlock, count, bsize)
	}

	for i := 0; i < count; i++ {
		b, err := c.Get(device, startBlock+int64(i), bsize)
		if err != nil {
			return err
		}
		copy(buf[i*bsize:(i+1)*bsize], b.Data())
		if err := c.Release(device, startBlock+int64(i)); err != nil {
			return err
		}
	}

	// Warm the read-ahead tail without handing its bytes to the caller.
	for i := count; i < readAheadCount; i++ {
		b, err := c.Get(device, startBlock+int64(i), bsize)
		if err != nil {
			return err
		}
		if err := c.Release(device, startBlock+int64(i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) allMissing(device Device, startBlock int64, count int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < count; i++ {
		if _, ok := c.blocks[Key{Device: device, BlockNo: startBlock + int64(i)}]; ok {
			return false
		}
	}
	return count > 0
}

func (c *Cache) extendForReadAhead(device Device, startBlock int64, count int, bsize int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	extra := c.readAhead / bsize
	target := count + extra

	var bound int64 = -1
	if info := c.devices[device]; info != nil && info.numBlocks > 0 {
		bound = info.numBlocks
	}

	n := count
	for n < target {
		blockNo := startBlock + int64(n)
		if bound >= 0 && blockNo >= bound {
			break
		}
		if _, ok := c.blocks[Key{Device: device, BlockNo: blockNo}]; ok {
			break
		}
		n++
	}
	return n
}

// CachedWrite writes buf (count*bsize bytes) to blocks starting at
// startBlock, marking each dirty and releasing it immediately.
func (c *Cache) CachedWrite(device Device, startBlock int64, buf []byte, count int, bsize int) error {
	if len(buf) < count*bsize {
		return fserrors.BadRequest("CachedWrite: buffer too small")
	}
	if count*bsize >= LargeIOThreshold {
		return c.largeWrite(device, startBlock, buf, count, bsize)
	}

	for i := 0; i < count; i++ {
		b, err := c.Get(device, startBlock+int64(i), bsize)
		if err != nil {
			return err
		}
		copy(b.Data(), buf[i*bsize:(i+1)*bsize])
		c.mu.Lock()
		b.dirty = true
		c.mu.Unlock()
		if err := c.Release(device, startBlock+int64(i)); err != nil {
			return err
		}
	}
	return nil
}

// CachedWriteLocked behaves like CachedWrite but leaves each written block
// locked, returning them so the caller can Release (or further mutate)
// them later.
func (c *Cache) CachedWriteLocked(device Device, startBlock int64, buf []byte, count int, bsize int) ([]*Block, error) {
	if len(buf) < count*bsize {
		return nil, fserrors.BadRequest("CachedWriteLocked: buffer too small")
	}

	out := make([]*Block, 0, count)
	for i := 0; i < count; i++ {
		b, err := c.Get(device, startBlock+int64(i), bsize)
		if err != nil {
			return out, err
		}
		copy(b.Data(), buf[i*bsize:(i+1)*bsize])
		c.mu.Lock()
		b.dirty = true
		c.mu.Unlock()
		out = append(out, b)
	}
	return out, nil
}

// largeRead bypasses the cache for blocks not already resident, but still
// refreshes any cached entry covered by the range so the cache never
// returns stale data afterwards, per spec.md §4.3 "Coalescing". Resident
// blocks that are dirty or cloned are returned from the cache.
func (c *Cache) largeRead(device Device, startBlock int64, buf []byte, count int, bsize int) error {
	if err := c.backend.ReadAt(device, startBlock, buf[:count*bsize]); err != nil {
		return fserrors.Cache(fmt.Sprintf("large read device %d", device), err)
	}
	c.mu.Lock()
	for i := 0; i < count; i++ {
		key := Key{Device: device, BlockNo: startBlock + int64(i)}
		if b, ok := c.blocks[key]; ok {
			if b.dirty || b.clone != nil {
				copy(buf[i*bsize:(i+1)*bsize], b.data)
			} else {
				copy(b.data, buf[i*bsize:(i+1)*bsize])
			}
		}
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) largeWrite(device Device, startBlock int64, buf []byte, count int, bsize int) error {
	if err := c.backend.WriteAt(device, startBlock, buf[:count*bsize]); err != nil {
		return fserrors.Cache(fmt.Sprintf("large write device %d", device), err)
	}
	c.mu.Lock()
	for i := 0; i < count; i++ {
		key := Key{Device: device, BlockNo: startBlock + int64(i)}
		if b, ok := c.blocks[key]; ok && b.lockCount == 0 && b.clone == nil {
			copy(b.data, buf[i*bsize:(i+1)*bsize])
			b.dirty = false
		}
	}
	c.mu.Unlock()
	return nil
}
