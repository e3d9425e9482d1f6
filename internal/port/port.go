// Package port implements the bounded-buffer transport of spec.md §4.1: a
// paired pair of byte-frame mailboxes, one owned by the server-side worker,
// one by its kernel-side caller.
//
// Grounded on the request/reply shape of Connection.ReadOp/Connection.Reply
// in jacobsa/fuse (df9a71de_jacobsa-fuse__connection.go.go): a scratch
// output buffer that the caller fills in place before handing it back, and
// a blocking read loop that returns a sentinel error when the kernel side
// hangs up. Unlike that teacher, which speaks to a real /dev/fuse file
// descriptor, this transport is local-only (spec.md Non-goals), so each
// port pair is backed by in-process queues rather than an OS pipe — the
// one deliberate redesign called out in SPEC_FULL.md §4.1/§7.
package port

import (
	"sync"
	"time"

	"github.com/userlandfs/server/internal/fserrors"
)

// DefaultCapacity is the default bound on a port's in-flight bytes, chosen
// to match the "one page by default" default in spec.md §4.1.
const DefaultCapacity = 4096

// Info mirrors the {owner_handle, client_handle, capacity} record carried
// in the dispatcher registration message (spec.md §6).
type Info struct {
	OwnerHandle  uint32
	ClientHandle uint32
	Capacity     int32
}

// mailbox is a single-direction bounded queue of byte frames.
type mailbox struct {
	mu        sync.Mutex
	notEmpty  *sync.Cond
	notFull   *sync.Cond
	capacity  int32
	used      int32
	queue     [][]byte
	closed    bool
}

func newMailbox(capacity int32) *mailbox {
	m := &mailbox{capacity: capacity}
	m.notEmpty = sync.NewCond(&m.mu)
	m.notFull = sync.NewCond(&m.mu)
	return m
}

func (m *mailbox) send(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for !m.closed && m.used+int32(len(frame)) > m.capacity && m.used > 0 {
		m.notFull.Wait()
	}
	if m.closed {
		return fserrors.Closed()
	}

	cp := make([]byte, len(frame))
	copy(cp, frame)
	m.queue = append(m.queue, cp)
	m.used += int32(len(cp))
	m.notEmpty.Signal()
	return nil
}

// receive blocks until a frame is available, the mailbox is closed, or
// timeout elapses. A negative timeout means "forever", per spec.md §4.1.
func (m *mailbox) receive(timeout time.Duration) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deadline time.Time
	hasDeadline := timeout >= 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	for len(m.queue) == 0 && !m.closed {
		if !hasDeadline {
			m.notEmpty.Wait()
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fserrors.TimedOut()
		}
		// sync.Cond has no timed wait; approximate it by releasing the lock,
		// sleeping in small slices, and re-checking. This keeps the mailbox
		// API symmetric with a real OS port's timed receive without pulling
		// in a channel-based redesign of the whole type.
		m.mu.Unlock()
		sleep := remaining
		if sleep > 5*time.Millisecond {
			sleep = 5 * time.Millisecond
		}
		time.Sleep(sleep)
		m.mu.Lock()
	}

	if len(m.queue) == 0 && m.closed {
		return nil, fserrors.Closed()
	}

	frame := m.queue[0]
	m.queue = m.queue[1:]
	m.used -= int32(len(frame))
	m.notFull.Signal()
	return frame, nil
}

func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.notEmpty.Broadcast()
	m.notFull.Broadcast()
}

// Port is one end of a paired bounded-buffer transport. A Port belongs to
// exactly one worker; Reserve/Unreserve/Send mutate unexported state that is
// not safe for concurrent use from multiple goroutines, matching spec.md
// §4.1's "not thread-safe per port" contract.
type Port struct {
	out *mailbox // frames written here are read by the peer
	in  *mailbox // frames read here were written by the peer

	ownerHandle  uint32
	clientHandle uint32

	scratch      []byte
	reservedSize int32
}

// NewPair creates two Ports whose send/receive directions are crossed, so
// that what the owner sends the client receives and vice versa.
func NewPair(capacity int32, ownerHandle, clientHandle uint32) (owner, client *Port) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	ownerToClient := newMailbox(capacity)
	clientToOwner := newMailbox(capacity)

	owner = &Port{
		out:          ownerToClient,
		in:           clientToOwner,
		ownerHandle:  ownerHandle,
		clientHandle: clientHandle,
		scratch:      make([]byte, capacity),
	}
	client = &Port{
		out:          clientToOwner,
		in:           ownerToClient,
		ownerHandle:  ownerHandle,
		clientHandle: clientHandle,
		scratch:      make([]byte, capacity),
	}
	return owner, client
}

// Info returns the {owner, client, capacity} record for this port pair.
func (p *Port) Info() Info {
	return Info{OwnerHandle: p.ownerHandle, ClientHandle: p.clientHandle, Capacity: int32(len(p.scratch))}
}

// GetBuffer returns the port's scratch send buffer, into which a caller may
// write a reply before calling Send with the final size.
func (p *Port) GetBuffer() []byte { return p.scratch }

// GetCapacity returns the scratch buffer's total size.
func (p *Port) GetCapacity() int32 { return int32(len(p.scratch)) }

// Reserve carves out [0, endOffset) of the scratch buffer as "already
// spoken for" by a caller that wants to build a reply incrementally without
// reallocating, per spec.md §4.1.
func (p *Port) Reserve(endOffset int32) {
	p.reservedSize = endOffset
}

// Unreserve releases a previously reserved span.
func (p *Port) Unreserve(endOffset int32) {
	if p.reservedSize == endOffset {
		p.reservedSize = 0
	}
}

// ReservedSize returns the size most recently passed to Reserve.
func (p *Port) ReservedSize() int32 { return p.reservedSize }

// Send enqueues size bytes from the port's scratch buffer (or, if buf is
// non-nil, buf itself) on the peer's receive mailbox. It blocks if the
// peer's queue is full.
func (p *Port) Send(buf []byte, size int32) error {
	frame := buf
	if frame == nil {
		frame = p.scratch[:size]
	} else {
		frame = frame[:size]
	}
	return p.out.send(frame)
}

// Receive blocks up to timeout for a frame written by the peer. A negative
// timeout means forever. Returns fserrors.Closed() if Close was called on
// either end, fserrors.TimedOut() if the deadline elapsed first.
func (p *Port) Receive(timeout time.Duration) ([]byte, error) {
	return p.in.receive(timeout)
}

// Close marks both directions of this end as closed, waking any blocked
// Receive with TransportClosed. Idempotent, per spec.md §4.1.
func (p *Port) Close() {
	p.out.close()
	p.in.close()
}
