// Package session runs one bidirectional Detect stream against a deadlock
// detector. Requests are queued by Submit and sent in order by the write
// loop; responses are passed to a single Handler by the read loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pingcap/kvproto/pkg/deadlock"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"

	"github.com/kakao/deadlockbench/pkg/rpc"
)

// WriteTask drains the outbound queue into the stream. It returns nil once
// CloseSubmit was called and every queued request has been sent.
type WriteTask func(ctx context.Context) error

// ReadTask reads responses until the Handler stops or faults, the stream
// fails, or ctx is done.
type ReadTask func(ctx context.Context) (reason string, err error)

var errWriteTaskStarted = errors.New("session: write task already started")

type Session struct {
	config
	addr   string
	conn   *rpc.Conn
	client deadlock.DeadlockClient

	mu         sync.Mutex
	registered bool
	terminated bool
	cancel     context.CancelCauseFunc

	stream  deadlock.Deadlock_DetectClient
	queue   *requestQueue
	writing atomic.Bool

	// closed is true until RegisterHandler and again after CloseSubmit.
	closed struct {
		xsync.RBMutex
		value bool
	}

	closeOnce sync.Once
	closeErr  error
}

// New connects to the detector at addr. The returned Session owns the
// connection and closes it in Close.
func New(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	var conn *rpc.Conn
	if cfg.blockingDial {
		conn, err = rpc.NewBlockingConn(ctx, addr, cfg.dialOptions()...)
	} else {
		conn, err = rpc.NewConn(ctx, addr, cfg.dialOptions()...)
	}
	if err != nil {
		cfg.logger.Error("could not connect", zap.String("addr", addr), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, addr, err)
	}

	s := newSession(cfg, addr, deadlock.NewDeadlockClient(conn.Conn))
	s.conn = conn
	return s, nil
}

// NewFromConn creates a Session over an existing connection, for instance
// one kept by rpc.Manager. The connection is not closed by Close, and
// keepalive and dial options are ignored.
func NewFromConn(conn *rpc.Conn, opts ...Option) (*Session, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newSession(cfg, conn.Address(), deadlock.NewDeadlockClient(conn.Conn)), nil
}

func newSession(cfg config, addr string, client deadlock.DeadlockClient) *Session {
	s := &Session{
		config: cfg,
		addr:   addr,
		client: client,
	}
	s.logger = s.logger.With(zap.String("addr", addr))
	s.closed.value = true
	return s
}

// Address returns the address of the detector.
func (s *Session) Address() string {
	return s.addr
}

// RegisterHandler opens the Detect stream and returns the tasks that drive
// it. Each task must be run once, usually on its own goroutine. It can be
// called only once per Session.
func (s *Session) RegisterHandler(ctx context.Context, handler Handler) (WriteTask, ReadTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registered {
		return nil, nil, ErrHandlerRegistered
	}
	if s.terminated {
		return nil, nil, ErrClosed
	}

	streamCtx, cancel := context.WithCancelCause(ctx)
	stream, err := s.client.Detect(streamCtx)
	if err != nil {
		cancel(err)
		s.logger.Error("could not open detect stream", zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrConnection, s.addr, err)
	}

	s.closed.Lock()
	s.stream = stream
	s.queue = newRequestQueue(s.queueCapacity)
	s.closed.value = false
	s.closed.Unlock()

	s.registered = true
	s.cancel = cancel

	read := func(ctx context.Context) (string, error) {
		return s.readLoop(ctx, handler)
	}
	return s.writeLoop, read, nil
}

// Submit queues req without blocking. Requests are sent in the order they
// were submitted.
func (s *Session) Submit(req *deadlock.DeadlockRequest) error {
	rt := s.closed.RLock()
	defer s.closed.RUnlock(rt)

	if s.closed.value {
		return ErrQueueClosed
	}
	if !s.queue.tryReserve() {
		return ErrQueueFull
	}
	return s.pushReserved(req)
}

// SubmitContext is Submit that waits for room in a bounded queue until ctx is
// done.
func (s *Session) SubmitContext(ctx context.Context, req *deadlock.DeadlockRequest) error {
	rt := s.closed.RLock()
	closed, queue := s.closed.value, s.queue
	s.closed.RUnlock(rt)
	if closed {
		return ErrQueueClosed
	}

	if err := queue.reserve(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrQueueClosed
	}

	rt = s.closed.RLock()
	defer s.closed.RUnlock(rt)
	if s.closed.value {
		queue.unreserve()
		return ErrQueueClosed
	}
	return s.pushReserved(req)
}

func (s *Session) pushReserved(req *deadlock.DeadlockRequest) error {
	if err := s.queue.push(req); err != nil {
		s.queue.unreserve()
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// Pending returns the number of queued requests not sent yet.
func (s *Session) Pending() int {
	rt := s.closed.RLock()
	defer s.closed.RUnlock(rt)
	if s.queue == nil {
		return 0
	}
	return s.queue.len()
}

// CloseSubmit closes the sending side. Requests already queued are still
// sent, then the write loop half-closes the stream. It does nothing before
// RegisterHandler.
func (s *Session) CloseSubmit() {
	s.closed.Lock()
	defer s.closed.Unlock()

	if s.closed.value {
		return
	}
	s.closed.value = true
	s.queue.close()
}

func (s *Session) submitClosed() bool {
	rt := s.closed.RLock()
	defer s.closed.RUnlock(rt)
	return s.closed.value
}

// Close cancels the stream and, for a Session made by New, closes the
// connection. Pending requests are dropped.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.terminated = true
		cancel := s.cancel
		s.mu.Unlock()

		s.CloseSubmit()
		if cancel != nil {
			cancel(ErrClosed)
		}
		if s.conn != nil {
			s.closeErr = s.conn.Close()
		}
	})
	return s.closeErr
}

func (s *Session) writeLoop(ctx context.Context) (err error) {
	if !s.writing.CompareAndSwap(false, true) {
		return errWriteTaskStarted
	}

	var sendFailed bool
	defer func() {
		s.CloseSubmit()
		if dropped := s.queue.drop(); dropped > 0 {
			s.logger.Debug("dropped queued requests", zap.Int("dropped", dropped))
		}
		if sendFailed {
			return
		}
		if cerr := s.stream.CloseSend(); cerr != nil {
			s.logger.Warn("could not close send", zap.Error(cerr))
		}
	}()

	send := func(req *deadlock.DeadlockRequest) error {
		defer s.queue.done()
		if err := s.stream.Send(req); err != nil {
			sendFailed = true
			s.logger.Warn("could not send", zap.Stringer("request", req), zap.Int("dropped", s.queue.len()-1), zap.Error(err))
			return newTransportError("send", err)
		}
		return nil
	}

	// waitCtx is also canceled by CloseSubmit.
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.queue.closed, cancel)
	defer stop()

	for {
		req, err := s.queue.next(waitCtx)
		if err != nil {
			if waitCtx.Err() == nil {
				return err
			}
			break
		}
		if err := send(req); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for {
		req, ok := s.queue.tryNext()
		if !ok {
			return nil
		}
		if err := send(req); err != nil {
			return err
		}
	}
}

func (s *Session) readLoop(ctx context.Context, handler Handler) (string, error) {
	stop := context.AfterFunc(ctx, func() {
		s.cancel(context.Cause(ctx))
	})
	defer stop()

	for {
		rsp, err := s.stream.Recv()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", newTransportError("recv", err)
		}

		v := handler(rsp)
		switch v.kind {
		case verdictStop:
			return v.reason, nil
		case verdictFault:
			return "", v.err
		}
	}
}
