package blockcache

// Backend is the disk I/O a Cache reads through and flushes to. Production
// code plugs in whatever device abstraction the server host was handed;
// tests use an in-memory fake (see fakeBackend in cache_test.go).
//
// Grounded on spec.md §4.3's algorithms section: ReadAt/WriteAt operate in
// whole blocks of the device's registered bsize, and WriteAt is always
// asked to write one or more *contiguous* blocks so the cache can satisfy
// spec.md §8 property 7 ("flushing 64 contiguous dirty blocks issues a
// single vectored write") by handing the backend one concatenated buffer.
type Backend interface {
	// ReadAt fills buf (a multiple of bsize) starting at startBlock.
	ReadAt(device Device, startBlock int64, buf []byte) error
	// WriteAt writes buf (a multiple of bsize) starting at startBlock in a
	// single call, standing in for a vectored write of len(buf)/bsize
	// blocks.
	WriteAt(device Device, startBlock int64, buf []byte) error
}
