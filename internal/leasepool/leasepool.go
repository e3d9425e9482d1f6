// Package leasepool generalizes the lease/downgrade/revoke vocabulary of
// the teacher's lease package (lease/file_leaser_test.go: NewFile,
// Downgrade, Revoke) to fixed-size in-memory buffers instead of
// temp-file-backed content.
//
// The block cache uses a Pool to obtain the bsize-sized clone buffers it
// takes at journal commit (spec.md §4.3, "set_block_info"): pooling avoids
// an allocation on every commit of a block that is committed and flushed
// repeatedly, the same way the teacher's FileLeaser avoids re-creating
// backing files for every new lease.
package leasepool

import "sync"

// Pool hands out fixed-size byte-slice leases and reclaims them on Release,
// keyed by size so a pool serving more than one device's blocks still
// returns correctly sized buffers for each.
type Pool struct {
	mu   sync.Mutex
	free map[int][][]byte
	live int
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{free: make(map[int][][]byte)}
}

// Lease is a leased buffer. Its owner must call Release exactly once,
// mirroring the teacher's lease.ReadWriteLease/lease.ReadLease contract
// where every lease is eventually revoked or downgraded away.
type Lease struct {
	pool *Pool
	buf  []byte
}

// Bytes returns the leased buffer. It is zero-length-extended/truncated to
// the size requested at Get time; its contents are all zero until the
// caller writes to it.
func (l *Lease) Bytes() []byte { return l.buf }

// Release returns the buffer to its pool for reuse. Calling Release twice
// on the same Lease is a bug (double-clone is fatal per spec.md §4.3's
// busy/clone corner cases) and is guarded against by clearing l.buf.
func (l *Lease) Release() {
	if l.buf == nil {
		return
	}
	l.pool.put(l.buf)
	l.buf = nil
}

// Get leases a buffer of exactly size bytes, reusing a freed one of the
// same size if available.
func (p *Pool) Get(size int) *Lease {
	p.mu.Lock()
	bucket := p.free[size]
	var buf []byte
	if n := len(bucket); n > 0 {
		buf = bucket[n-1]
		p.free[size] = bucket[:n-1]
	}
	p.live++
	p.mu.Unlock()

	if buf == nil {
		buf = make([]byte, size)
	} else {
		for i := range buf {
			buf[i] = 0
		}
	}
	return &Lease{pool: p, buf: buf}
}

func (p *Pool) put(buf []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live--
	size := len(buf)
	p.free[size] = append(p.free[size], buf)
}

// Live returns the number of leases currently outstanding (not yet
// released), for tests and diagnostics.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}
