// Package worker implements the fixed-size worker pool of spec.md §4.6:
// each worker owns one internal/port.Port, decodes frames arriving on it,
// dispatches them through an internal/handler.Handler, and sends back the
// response — nothing shared between workers except the Handler itself
// (which is safe for concurrent use, since each Volume serializes its own
// cookie-table access).
//
// Grounded on workerpool/static_worker_pool_test.go (teacher):
// NewStaticWorkerPool(priorityWorker, normalWorker uint32) (*Pool, error)
// with a zero-and-zero worker count rejected, and Stop() performing an
// ordered shutdown. The priority/normal split is carried over as two
// worker classes sharing one dispatch loop, matching spec.md §4.6's
// "priority workers service control-plane requests (mount/unmount) so
// they are never queued behind a backlog of file I/O."
package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/fserrors"
	"github.com/userlandfs/server/internal/handler"
	"github.com/userlandfs/server/internal/metrics"
	"github.com/userlandfs/server/internal/port"
	"github.com/userlandfs/server/internal/reqctx"
	"github.com/userlandfs/server/internal/wire"
)

// Class distinguishes a priority worker (mount/unmount/sync, spec.md
// §4.6) from a normal one (everything else).
type Class int

const (
	ClassNormal Class = iota
	ClassPriority
)

func (c Class) String() string {
	if c == ClassPriority {
		return "priority"
	}
	return "normal"
}

// controlPlaneOps are routed to priority workers when both classes exist,
// matching spec.md §4.6.
var controlPlaneOps = map[fscap.Op]bool{
	fscap.OpMount:   true,
	fscap.OpUnmount: true,
	fscap.OpSync:    true,
}

// IsControlPlaneOp reports whether op belongs on a priority worker's Port,
// so a caller forwarding kernel requests knows which Port to hand a given
// frame to.
func IsControlPlaneOp(op fscap.Op) bool {
	return controlPlaneOps[op]
}

// Classes returns each worker's class, in the same order NewStaticWorkerPool
// allocated the workers and the client Ports it returned, so a caller can
// match IsControlPlaneOp's routing decision to a concrete Port.
func (p *Pool) Classes() []Class {
	out := make([]Class, len(p.workers))
	for i, w := range p.workers {
		out[i] = w.class
	}
	return out
}

// worker owns one Port and its own request-nesting stack.
type worker struct {
	id    int
	class Class
	p     *port.Port
	stack *reqctx.Stack
	h     *handler.Handler

	inFlight *int64 // shared with every worker of the same class, for the queue-depth gauge

	ready chan struct{}
	done  chan struct{}
}

// Pool is a fixed set of workers draining their Ports concurrently.
type Pool struct {
	workers []*worker
	wg      sync.WaitGroup

	priorityInFlight int64
	normalInFlight   int64
}

// NewStaticWorkerPool creates priorityWorker priority-class workers and
// normalWorker normal-class workers, each bound to its own Port pair
// (returned so the caller can hand the client half to whatever is
// forwarding kernel requests in). At least one worker total is required.
func NewStaticWorkerPool(priorityWorker, normalWorker uint32, h *handler.Handler) (*Pool, []*port.Port, error) {
	if priorityWorker == 0 && normalWorker == 0 {
		return nil, nil, fserrors.BadRequest("worker pool needs at least one worker")
	}

	p := &Pool{}
	var clientPorts []*port.Port

	spawn := func(class Class, n uint32) {
		for i := uint32(0); i < n; i++ {
			ownerPort, clientPort := port.NewPair(port.DefaultCapacity, uint32(len(p.workers)), uint32(len(p.workers)))
			inFlight := &p.normalInFlight
			if class == ClassPriority {
				inFlight = &p.priorityInFlight
			}
			w := &worker{
				id:       len(p.workers),
				class:    class,
				p:        ownerPort,
				stack:    reqctx.New(),
				h:        h,
				inFlight: inFlight,
				ready:    make(chan struct{}),
				done:     make(chan struct{}),
			}
			p.workers = append(p.workers, w)
			clientPorts = append(clientPorts, clientPort)
		}
	}
	spawn(ClassPriority, priorityWorker)
	spawn(ClassNormal, normalWorker)

	for _, w := range p.workers {
		p.wg.Add(1)
		go w.run(&p.wg)
		<-w.ready // don't return until every worker goroutine has started its dispatch loop
	}
	return p, clientPorts, nil
}

// run is one worker's dispatch loop.
func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	close(w.ready)

	for {
		frame, err := w.p.Receive(-1)
		if err != nil {
			if fserrors.Is(err, fserrors.KindTransportClosed) {
				close(w.done)
				return
			}
			continue
		}

		req, err := wire.Decode(frame)
		if err != nil {
			continue // malformed frame; nothing sane to reply to
		}

		depth := atomic.AddInt64(w.inFlight, 1)
		metrics.SetWorkerQueueDepth(w.class.String(), int(depth))

		start := time.Now()
		reqFrame := w.stack.Push(req.Op, req.VolumeID)
		resp := w.h.Dispatch(reqFrame, req)
		w.stack.Pop()
		metrics.ObserveRequest(req.Op.String(), time.Since(start).Seconds(), !resp.HasErr)

		depth = atomic.AddInt64(w.inFlight, -1)
		metrics.SetWorkerQueueDepth(w.class.String(), int(depth))

		data, err := wire.Encode(resp)
		if err != nil {
			continue
		}
		_ = w.p.Send(data, int32(len(data)))
	}
}

// Stop closes every worker's Port (waking its blocked Receive with
// TransportClosed) and waits for each dispatch loop to exit, in worker
// order.
func (p *Pool) Stop() {
	if p == nil {
		return
	}
	for _, w := range p.workers {
		w.p.Close()
	}
	p.wg.Wait()
}

// Len reports the total worker count, for tests and diagnostics.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.workers)
}
