package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/enriquebris/goconcurrentqueue"
	"github.com/pingcap/kvproto/pkg/deadlock"
	"golang.org/x/sync/semaphore"
)

type queuedRequest struct {
	seq uint64
	req *deadlock.DeadlockRequest
}

// requestQueue is the outbound FIFO between Submit and the write loop, which
// is its only consumer. A bounded queue reserves room on sem from Submit until
// the request is sent or dropped.
type requestQueue struct {
	q   *goconcurrentqueue.FIFO
	sem *semaphore.Weighted

	mu      sync.Mutex
	pushSeq uint64
	pending atomic.Int64

	// closed is done once nothing more can be pushed.
	closed context.Context
	close  context.CancelFunc

	// DequeueOrWaitForNextElementContext may return an element ahead of an
	// older one still queued, so the write loop parks such elements in held
	// until their turn.
	held    map[uint64]*deadlock.DeadlockRequest
	sendSeq uint64
}

// newRequestQueue returns an unbounded queue if capacity is zero.
func newRequestQueue(capacity int) *requestQueue {
	rq := &requestQueue{
		q:    goconcurrentqueue.NewFIFO(),
		held: make(map[uint64]*deadlock.DeadlockRequest),
	}
	if capacity > 0 {
		rq.sem = semaphore.NewWeighted(int64(capacity))
	}
	rq.closed, rq.close = context.WithCancel(context.Background())
	return rq
}

func (rq *requestQueue) tryReserve() bool {
	return rq.sem == nil || rq.sem.TryAcquire(1)
}

// reserve waits for room until ctx is done or the queue is closed.
func (rq *requestQueue) reserve(ctx context.Context) error {
	if rq.sem == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(rq.closed, cancel)
	defer stop()
	return rq.sem.Acquire(ctx, 1)
}

func (rq *requestQueue) unreserve() {
	if rq.sem != nil {
		rq.sem.Release(1)
	}
}

// push must follow a successful reservation.
func (rq *requestQueue) push(req *deadlock.DeadlockRequest) error {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	rq.pending.Add(1)
	if err := rq.q.Enqueue(queuedRequest{seq: rq.pushSeq, req: req}); err != nil {
		rq.pending.Add(-1)
		return err
	}
	rq.pushSeq++
	return nil
}

// next returns the oldest request, waiting for one until ctx is done.
func (rq *requestQueue) next(ctx context.Context) (*deadlock.DeadlockRequest, error) {
	for {
		if req, ok := rq.takeHeld(); ok {
			return req, nil
		}
		item, err := rq.q.DequeueOrWaitForNextElementContext(ctx)
		if err != nil {
			return nil, err
		}
		rq.hold(item)
	}
}

// tryNext is next without waiting.
func (rq *requestQueue) tryNext() (*deadlock.DeadlockRequest, bool) {
	for {
		if req, ok := rq.takeHeld(); ok {
			return req, true
		}
		item, err := rq.q.Dequeue()
		if err != nil {
			return nil, false
		}
		rq.hold(item)
	}
}

func (rq *requestQueue) hold(item interface{}) {
	qr := item.(queuedRequest)
	rq.held[qr.seq] = qr.req
}

func (rq *requestQueue) takeHeld() (*deadlock.DeadlockRequest, bool) {
	req, ok := rq.held[rq.sendSeq]
	if !ok {
		return nil, false
	}
	delete(rq.held, rq.sendSeq)
	rq.sendSeq++
	return req, true
}

// done gives back the room of a request taken by next or tryNext.
func (rq *requestQueue) done() {
	rq.pending.Add(-1)
	rq.unreserve()
}

// drop discards every request left and returns how many there were.
func (rq *requestQueue) drop() int {
	n := 0
	for {
		if _, ok := rq.tryNext(); !ok {
			return n
		}
		rq.done()
		n++
	}
}

func (rq *requestQueue) len() int {
	return int(rq.pending.Load())
}
