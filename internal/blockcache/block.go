package blockcache

import "github.com/userlandfs/server/internal/leasepool"

// Key identifies one cache entry, per spec.md §3: "at most one cache entry
// exists for every (device, block#)".
type Key struct {
	Device  Device
	BlockNo int64
}

// Device is an opaque device identifier, matching spec.md §4.3's "opaque
// device identifier".
type Device uint64

// commit records the journal commit state a Block carries once
// set_block_info has been called on it (spec.md §4.3/§9: "the journal
// commit record is a value carried inside the Block, not a separate object
// with a back-pointer").
type commit struct {
	journaledBlockNo int64
	fn               CompletionFunc
	arg              uint64
}

// CompletionFunc is fired exactly once, when a block's clone has been
// durably written, per spec.md §3 invariant 4.
type CompletionFunc func(journaledBlockNo int64, success int, arg uint64)

// Block is one cached disk block: a fixed-size buffer plus the header
// fields of spec.md §3 ("Chunk / Block"). It is never shared between two
// Keys; at most one Block exists per (device, block#) (invariant 3).
type Block struct {
	key   Key
	bsize int
	data  []byte

	lockCount int
	dirty     bool
	busy      bool

	clone   *leasepool.Lease
	pending *commit

	// listNode fields are maintained exclusively by the cache's lruList;
	// see lru.go. They are not part of the Block's public contract.
	prev, next *Block
	onLocked   bool
}

func newBlock(key Key, bsize int) *Block {
	return &Block{key: key, bsize: bsize, data: make([]byte, bsize)}
}

// Data returns the block's live bytes. Callers must hold the cache's lock
// or a lock-count reference (via Get/GetEmpty) before touching it.
func (b *Block) Data() []byte { return b.data }

// Dirty reports whether the live buffer has unflushed writes.
func (b *Block) Dirty() bool { return b.dirty }

// LockCount reports the block's current lock count (spec.md §3 invariant 2).
func (b *Block) LockCount() int { return b.lockCount }

// Cloned reports whether a journal clone is currently attached.
func (b *Block) Cloned() bool { return b.clone != nil }
