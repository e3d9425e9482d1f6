package blockcache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBsize = 512

// fakeBackend is an in-memory Backend that records every WriteAt call so
// tests can assert on coalescing (spec.md §8 property 7).
type fakeBackend struct {
	mu       sync.Mutex
	storage  map[Device]map[int64][]byte
	writes   []writeCall
	failNext bool
}

type writeCall struct {
	device     Device
	startBlock int64
	numBlocks  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{storage: make(map[Device]map[int64][]byte)}
}

func (f *fakeBackend) ReadAt(device Device, startBlock int64, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dev := f.storage[device]
	n := len(buf) / testBsize
	for i := 0; i < n; i++ {
		blockNo := startBlock + int64(i)
		if data, ok := dev[blockNo]; ok {
			copy(buf[i*testBsize:(i+1)*testBsize], data)
		}
	}
	return nil
}

func (f *fakeBackend) WriteAt(device Device, startBlock int64, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return assertErr
	}
	n := len(buf) / testBsize
	f.writes = append(f.writes, writeCall{device: device, startBlock: startBlock, numBlocks: n})
	dev := f.storage[device]
	if dev == nil {
		dev = make(map[int64][]byte)
		f.storage[device] = dev
	}
	for i := 0; i < n; i++ {
		blockNo := startBlock + int64(i)
		cp := make([]byte, testBsize)
		copy(cp, buf[i*testBsize:(i+1)*testBsize])
		dev[blockNo] = cp
	}
	return nil
}

var assertErr = errDiskFull{}

type errDiskFull struct{}

func (errDiskFull) Error() string { return "disk full" }

func newTestCache(backend Backend) *Cache {
	c := New(backend, Config{MaxBlocks: 0, MaxBlocksPerDevice: 0})
	_ = c.InitDevice(1, 10000, testBsize)
	return c
}

// TestCache_ReadYourWrites is scenario-adjacent coverage for property 4
// ("read-your-writes"): a CachedRead after a CachedWrite of the same block
// returns the written bytes.
func TestCache_ReadYourWrites(t *testing.T) {
	backend := newFakeBackend()
	c := newTestCache(backend)

	buf := make([]byte, testBsize)
	for i := range buf {
		buf[i] = 0x42
	}
	require.NoError(t, c.CachedWrite(1, 5, buf, 1, testBsize))

	out := make([]byte, testBsize)
	require.NoError(t, c.CachedRead(1, 5, out, 1, testBsize))
	assert.Equal(t, buf, out)
}

// TestCache_ReleaseMovesToMRU covers property 6: after Get+Release a block
// sits at the MRU end of the normal list.
func TestCache_ReleaseMovesToMRU(t *testing.T) {
	backend := newFakeBackend()
	c := newTestCache(backend)

	for i := int64(0); i < 3; i++ {
		b, err := c.Get(1, i, testBsize)
		require.NoError(t, err)
		require.NoError(t, c.Release(1, i))
		_ = b
	}

	c.mu.Lock()
	tail := c.normal.tail
	c.mu.Unlock()
	require.NotNil(t, tail)
	assert.Equal(t, int64(2), tail.key.BlockNo)

	// Touch block 0 again; it should become the new MRU tail.
	_, err := c.Get(1, 0, testBsize)
	require.NoError(t, err)
	require.NoError(t, c.Release(1, 0))

	c.mu.Lock()
	tail = c.normal.tail
	c.mu.Unlock()
	assert.Equal(t, int64(0), tail.key.BlockNo)
}

// TestCache_EvictionFlushesDirtyVictim is scenario S3: a dirty block
// evicted under memory pressure must be written back first.
func TestCache_EvictionFlushesDirtyVictim(t *testing.T) {
	backend := newFakeBackend()
	c := New(backend, Config{MaxBlocks: 2})
	require.NoError(t, c.InitDevice(1, 100, testBsize))

	buf := make([]byte, testBsize)
	for i := range buf {
		buf[i] = 0x7
	}
	require.NoError(t, c.CachedWrite(1, 0, buf, 1, testBsize))

	// Bring in two more blocks, forcing block 0 out of the 2-block cache.
	for _, blockNo := range []int64{1, 2} {
		b, err := c.Get(1, blockNo, testBsize)
		require.NoError(t, err)
		require.NoError(t, c.Release(1, blockNo))
		_ = b
	}

	backend.mu.Lock()
	data, ok := backend.storage[1][0]
	backend.mu.Unlock()
	require.True(t, ok, "evicted dirty block should have been flushed to the backend")
	assert.Equal(t, buf, data)
}

// TestCache_SetBlockInfoFiresCallbackOnce is scenario S4 / property 5: a
// journal commit's completion callback fires exactly once, and a second
// flush of the live (post-commit) buffer does not refire it.
func TestCache_SetBlockInfoFiresCallbackOnce(t *testing.T) {
	backend := newFakeBackend()
	c := newTestCache(backend)

	buf := make([]byte, testBsize)
	for i := range buf {
		buf[i] = 1
	}
	locked, err := c.CachedWriteLocked(1, 10, buf, 1, testBsize)
	require.NoError(t, err)
	require.Len(t, locked, 1)

	var fired int
	var lastSuccess int
	require.NoError(t, c.SetBlockInfo(1, []int64{10}, func(blockNo int64, success int, arg uint64) {
		fired++
		lastSuccess = success
	}, 99))

	// SetBlockInfo dropped the lock; re-lock the block, mutate the live
	// buffer after the clone was taken, then release.
	_, err = c.Get(1, 10, testBsize)
	require.NoError(t, err)
	buf2 := make([]byte, testBsize)
	for i := range buf2 {
		buf2[i] = 2
	}
	copy(locked[0].Data(), buf2)
	c.mu.Lock()
	locked[0].dirty = true
	c.mu.Unlock()
	require.NoError(t, c.Release(1, 10))

	require.NoError(t, c.FlushDevice(1, false))
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, lastSuccess)

	// A second flush of the (now clean) live buffer must not refire it.
	require.NoError(t, c.FlushDevice(1, false))
	assert.Equal(t, 1, fired)

	backend.mu.Lock()
	data := backend.storage[1][10]
	backend.mu.Unlock()
	assert.Equal(t, buf2, data, "post-commit live write should eventually land on the backend")
}

// TestCache_SetBlockInfoRejectsDoubleClone covers the documented corner
// case: calling SetBlockInfo twice on the same block before it flushes is
// fatal.
func TestCache_SetBlockInfoRejectsDoubleClone(t *testing.T) {
	backend := newFakeBackend()
	c := newTestCache(backend)

	buf := make([]byte, testBsize)
	locked, err := c.CachedWriteLocked(1, 20, buf, 1, testBsize)
	require.NoError(t, err)
	require.Len(t, locked, 1)

	require.NoError(t, c.SetBlockInfo(1, []int64{20}, nil, 0))
	err = c.SetBlockInfo(1, []int64{20}, nil, 0)
	assert.Error(t, err)
}

// TestCache_FlushCoalescesContiguousRun is property 7: flushing 64
// contiguous dirty blocks issues a single vectored write.
func TestCache_FlushCoalescesContiguousRun(t *testing.T) {
	backend := newFakeBackend()
	c := newTestCache(backend)

	buf := make([]byte, testBsize*NumFlushBlocks)
	require.NoError(t, c.CachedWrite(1, 100, buf, NumFlushBlocks, testBsize))

	require.NoError(t, c.FlushDevice(1, false))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.writes, 1)
	assert.Equal(t, NumFlushBlocks, backend.writes[0].numBlocks)
	assert.Equal(t, int64(100), backend.writes[0].startBlock)
}

// TestCache_ConcurrentGetRelease is scenario S6: many goroutines hammering
// Get/Release across a small block range must never corrupt bookkeeping.
func TestCache_ConcurrentGetRelease(t *testing.T) {
	backend := newFakeBackend()
	c := New(backend, Config{MaxBlocks: 4})
	require.NoError(t, c.InitDevice(1, 1000, testBsize))

	const workers = 6
	const iterations = 200
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				blockNo := int64((id + i) % 8)
				b, err := c.Get(1, blockNo, testBsize)
				if err != nil {
					continue
				}
				b.Data()[0] = byte(id)
				c.mu.Lock()
				b.dirty = true
				c.mu.Unlock()
				_ = c.Release(1, blockNo)
			}
		}(w)
	}
	wg.Wait()

	require.NoError(t, c.ForceCacheFlush(1, false))
}

// TestCache_BlockSizeMismatchIsFatal covers invariant 7.
func TestCache_BlockSizeMismatchIsFatal(t *testing.T) {
	backend := newFakeBackend()
	c := New(backend, Config{})
	require.NoError(t, c.InitDevice(1, 10, testBsize))

	_, err := c.Get(1, 0, testBsize*2)
	assert.Error(t, err)
}

// TestCache_RemoveCachedDeviceBlocksDropsEntries covers device teardown.
func TestCache_RemoveCachedDeviceBlocksDropsEntries(t *testing.T) {
	backend := newFakeBackend()
	c := newTestCache(backend)

	_, err := c.Get(1, 0, testBsize)
	require.NoError(t, err)
	require.NoError(t, c.Release(1, 0))

	require.NoError(t, c.RemoveCachedDeviceBlocks(1, true))

	c.mu.Lock()
	_, ok := c.blocks[Key{Device: 1, BlockNo: 0}]
	c.mu.Unlock()
	assert.False(t, ok)
}
