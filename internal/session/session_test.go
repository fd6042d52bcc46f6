package session

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gogo/status"
	"github.com/pingcap/kvproto/pkg/deadlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/test/bufconn"

	"github.com/kakao/deadlockbench/pkg/deadlocktest"
	"github.com/kakao/deadlockbench/pkg/rpc"
	"github.com/kakao/deadlockbench/proto/deadlockpb"
	"github.com/kakao/deadlockbench/proto/deadlockpb/mock"
)

var (
	sentinel1 = deadlock.WaitForEntry{Txn: 1000, WaitForTxn: 1001, KeyHash: 1000}
	sentinel2 = deadlock.WaitForEntry{Txn: 1001, WaitForTxn: 1000, KeyHash: 1001}
)

func detectRequest(entry deadlock.WaitForEntry) *deadlock.DeadlockRequest {
	return &deadlock.DeadlockRequest{
		Tp:    deadlock.DeadlockRequestType_Detect,
		Entry: entry,
	}
}

func startFake(t *testing.T, opts ...deadlocktest.Option) (*deadlocktest.Server, *bufconn.Listener, func(opts ...grpc.DialOption) *rpc.Conn) {
	t.Helper()

	srv, err := deadlocktest.New(opts...)
	require.NoError(t, err)

	lis, connect := rpc.TestNewConn(t, context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = srv.Serve(lis)
	}()
	t.Cleanup(func() {
		srv.Stop()
		wg.Wait()
	})
	return srv, lis, connect
}

func newTestSession(t *testing.T, opts ...deadlocktest.Option) (*deadlocktest.Server, *Session) {
	t.Helper()

	srv, _, connect := startFake(t, opts...)
	conn := connect()
	t.Cleanup(func() {
		_ = conn.Close()
	})

	s, err := NewFromConn(conn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return srv, s
}

func newMockSession(t *testing.T, opts ...Option) (*Session, *mock.MockDeadlockClient, *mock.MockDeadlock_DetectClient) {
	t.Helper()

	ctrl := gomock.NewController(t)
	client := mock.NewMockDeadlockClient(ctrl)
	stream := mock.NewMockDeadlock_DetectClient(ctrl)

	cfg, err := newConfig(opts)
	require.NoError(t, err)
	s := newSession(cfg, "mock", client)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, client, stream
}

func TestSessionSubmitBeforeRegister(t *testing.T) {
	_, s := newTestSession(t)

	require.ErrorIs(t, s.Submit(detectRequest(sentinel1)), ErrQueueClosed)
	require.Zero(t, s.Pending())

	// no-op
	s.CloseSubmit()
}

func TestSessionRegisterHandlerTwice(t *testing.T) {
	_, s := newTestSession(t)

	handler := func(*deadlock.DeadlockResponse) Verdict { return Continue() }
	_, _, err := s.RegisterHandler(context.Background(), handler)
	require.NoError(t, err)

	_, _, err = s.RegisterHandler(context.Background(), handler)
	require.ErrorIs(t, err, ErrHandlerRegistered)
}

func TestSessionRegisterHandlerAfterClose(t *testing.T) {
	_, s := newTestSession(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err := s.RegisterHandler(context.Background(), func(*deadlock.DeadlockResponse) Verdict {
		return Continue()
	})
	require.ErrorIs(t, err, ErrClosed)
}

func TestSessionFIFO(t *testing.T) {
	const n = 500

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv, s := newTestSession(t,
		deadlocktest.WithMode(deadlocktest.ModeEchoSentinels),
		deadlocktest.WithSentinels(sentinel2),
	)

	var received []deadlock.DeadlockRequest
	write, read, err := s.RegisterHandler(ctx, func(rsp *deadlock.DeadlockResponse) Verdict {
		if !deadlockpb.SameEdge(rsp.Entry, sentinel2) {
			return Fault(errors.New("unexpected response"))
		}
		received = srv.Received()
		return Stop("drained")
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, write(ctx))
	}()

	for i := uint64(0); i < n; i++ {
		require.NoError(t, s.Submit(detectRequest(deadlock.WaitForEntry{Txn: i, WaitForTxn: i + 1, KeyHash: i})))
	}
	require.NoError(t, s.Submit(detectRequest(sentinel1)))
	require.NoError(t, s.Submit(detectRequest(sentinel2)))
	s.CloseSubmit()

	reason, err := read(ctx)
	require.NoError(t, err)
	require.Equal(t, "drained", reason)
	wg.Wait()

	require.Len(t, received, n+2)
	for i := uint64(0); i < n; i++ {
		require.Equal(t, i, received[i].Entry.Txn)
	}
	require.Equal(t, sentinel1, received[n].Entry)
	require.Equal(t, sentinel2, received[n+1].Entry)

	require.ErrorIs(t, s.Submit(detectRequest(sentinel1)), ErrQueueClosed)
}

func TestSessionReadBlocksWithoutResponse(t *testing.T) {
	_, s := newTestSession(t, deadlocktest.WithMode(deadlocktest.ModeSilent))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	write, read, err := s.RegisterHandler(context.Background(), func(*deadlock.DeadlockResponse) Verdict {
		return Stop("unexpected")
	})
	require.NoError(t, err)

	require.NoError(t, s.Submit(detectRequest(sentinel1)))
	require.NoError(t, s.Submit(detectRequest(sentinel2)))
	s.CloseSubmit()
	require.NoError(t, write(ctx))

	type result struct {
		reason string
		err    error
	}
	resultC := make(chan result, 1)
	go func() {
		reason, err := read(ctx)
		resultC <- result{reason: reason, err: err}
	}()

	select {
	case res := <-resultC:
		t.Fatalf("read task returned: %+v", res)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	res := <-resultC
	require.ErrorIs(t, res.err, context.Canceled)
	require.Empty(t, res.reason)
}

func TestSessionRecvEOF(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, s := newTestSession(t, deadlocktest.WithMode(deadlocktest.ModeEcho))

	var responses int
	write, read, err := s.RegisterHandler(ctx, func(*deadlock.DeadlockResponse) Verdict {
		responses++
		return Continue()
	})
	require.NoError(t, err)

	require.NoError(t, s.Submit(detectRequest(sentinel1)))
	s.CloseSubmit()
	require.NoError(t, write(ctx))

	_, err = read(ctx)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "recv", te.Op)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 1, responses)
}

func TestSessionWriteFailure(t *testing.T) {
	ctx := context.Background()
	s, client, stream := newMockSession(t)

	client.EXPECT().Detect(gomock.Any()).Return(stream, nil)
	stream.EXPECT().Send(gomock.Any()).Return(status.Error(codes.Unavailable, "detector down"))

	write, _, err := s.RegisterHandler(ctx, func(*deadlock.DeadlockResponse) Verdict {
		return Continue()
	})
	require.NoError(t, err)

	require.NoError(t, s.Submit(detectRequest(sentinel1)))
	require.NoError(t, s.Submit(detectRequest(sentinel2)))

	err = write(ctx)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "send", te.Op)
	require.Equal(t, codes.Unavailable, te.Code)

	require.ErrorIs(t, s.Submit(detectRequest(sentinel1)), ErrQueueClosed)

	// The write task runs only once.
	require.Error(t, write(ctx))
}

func TestSessionOpenStreamFailure(t *testing.T) {
	s, client, _ := newMockSession(t)

	client.EXPECT().Detect(gomock.Any()).Return(nil, status.Error(codes.Unavailable, "no route"))

	_, _, err := s.RegisterHandler(context.Background(), func(*deadlock.DeadlockResponse) Verdict {
		return Continue()
	})
	require.ErrorIs(t, err, ErrConnection)
	require.ErrorIs(t, s.Submit(detectRequest(sentinel1)), ErrQueueClosed)
}

func TestSessionHandlerFault(t *testing.T) {
	ctx := context.Background()
	s, client, stream := newMockSession(t)

	client.EXPECT().Detect(gomock.Any()).Return(stream, nil)
	gomock.InOrder(
		stream.EXPECT().Recv().Return(&deadlock.DeadlockResponse{Entry: sentinel1}, nil),
		stream.EXPECT().Recv().Return(&deadlock.DeadlockResponse{Entry: sentinel2}, nil),
	)

	errBadResponse := errors.New("bad response")
	var seen []deadlock.WaitForEntry
	_, read, err := s.RegisterHandler(ctx, func(rsp *deadlock.DeadlockResponse) Verdict {
		seen = append(seen, rsp.Entry)
		if deadlockpb.SameEdge(rsp.Entry, sentinel2) {
			return Fault(errBadResponse)
		}
		return Continue()
	})
	require.NoError(t, err)

	reason, err := read(ctx)
	require.ErrorIs(t, err, errBadResponse)
	require.Empty(t, reason)
	require.Equal(t, []deadlock.WaitForEntry{sentinel1, sentinel2}, seen)
}

func TestSessionBoundedQueue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, client, stream := newMockSession(t, WithQueueCapacity(2))

	client.EXPECT().Detect(gomock.Any()).Return(stream, nil)
	stream.EXPECT().Send(gomock.Any()).Return(nil).Times(3)
	stream.EXPECT().CloseSend().Return(nil)

	write, _, err := s.RegisterHandler(ctx, func(*deadlock.DeadlockResponse) Verdict {
		return Continue()
	})
	require.NoError(t, err)

	require.NoError(t, s.Submit(detectRequest(sentinel1)))
	require.NoError(t, s.Submit(detectRequest(sentinel2)))
	require.Equal(t, 2, s.Pending())
	require.ErrorIs(t, s.Submit(detectRequest(sentinel1)), ErrQueueFull)

	shortCtx, shortCancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer shortCancel()
	require.ErrorIs(t, s.SubmitContext(shortCtx, detectRequest(sentinel1)), context.DeadlineExceeded)

	errC := make(chan error, 1)
	go func() {
		errC <- write(ctx)
	}()

	require.NoError(t, s.SubmitContext(ctx, detectRequest(sentinel1)))
	s.CloseSubmit()
	require.NoError(t, <-errC)
	require.Zero(t, s.Pending())
}

func TestSessionSubmitContextWaitsForSend(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, client, stream := newMockSession(t, WithQueueCapacity(1))

	sent := make(chan struct{})
	client.EXPECT().Detect(gomock.Any()).Return(stream, nil)
	gomock.InOrder(
		stream.EXPECT().Send(gomock.Any()).DoAndReturn(func(*deadlock.DeadlockRequest) error {
			<-sent
			return nil
		}),
		stream.EXPECT().Send(gomock.Any()).Return(nil),
	)
	stream.EXPECT().CloseSend().Return(nil)

	write, _, err := s.RegisterHandler(ctx, func(*deadlock.DeadlockResponse) Verdict {
		return Continue()
	})
	require.NoError(t, err)
	require.NoError(t, s.Submit(detectRequest(sentinel1)))

	submitC := make(chan error, 1)
	go func() {
		submitC <- s.SubmitContext(ctx, detectRequest(sentinel2))
	}()
	writeC := make(chan error, 1)
	go func() {
		writeC <- write(ctx)
	}()

	// The first request holds the only slot until its Send returns.
	require.Never(t, func() bool {
		return len(submitC) > 0
	}, 50*time.Millisecond, 5*time.Millisecond)

	close(sent)
	require.NoError(t, <-submitC)
	s.CloseSubmit()
	require.NoError(t, <-writeC)
	require.Zero(t, s.Pending())
}

func TestSessionSubmitContextCloseSubmit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, client, stream := newMockSession(t, WithQueueCapacity(1))
	client.EXPECT().Detect(gomock.Any()).Return(stream, nil)

	_, _, err := s.RegisterHandler(ctx, func(*deadlock.DeadlockResponse) Verdict {
		return Continue()
	})
	require.NoError(t, err)
	require.NoError(t, s.Submit(detectRequest(sentinel1)))

	submitC := make(chan error, 1)
	go func() {
		submitC <- s.SubmitContext(ctx, detectRequest(sentinel2))
	}()

	s.CloseSubmit()
	require.ErrorIs(t, <-submitC, ErrQueueClosed)
	require.Equal(t, 1, s.Pending())
}

func TestSessionWriteCanceled(t *testing.T) {
	s, client, stream := newMockSession(t)

	client.EXPECT().Detect(gomock.Any()).Return(stream, nil)
	stream.EXPECT().CloseSend().Return(nil)

	write, _, err := s.RegisterHandler(context.Background(), func(*deadlock.DeadlockResponse) Verdict {
		return Continue()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, write(ctx), context.Canceled)
	require.ErrorIs(t, s.Submit(detectRequest(sentinel1)), ErrQueueClosed)
}

func TestNew(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv, lis, _ := startFake(t, deadlocktest.WithMode(deadlocktest.ModeEcho))

	s, err := New(ctx, "bufnet",
		WithKeepalive(time.Second, time.Second),
		WithGRPCDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		})),
	)
	require.NoError(t, err)
	require.Equal(t, "bufnet", s.Address())

	write, read, err := s.RegisterHandler(ctx, func(rsp *deadlock.DeadlockResponse) Verdict {
		if deadlockpb.SameEdge(rsp.Entry, sentinel2) {
			return Stop("finished")
		}
		return Continue()
	})
	require.NoError(t, err)

	require.NoError(t, s.Submit(detectRequest(sentinel1)))
	require.NoError(t, s.Submit(detectRequest(sentinel2)))
	s.CloseSubmit()
	require.NoError(t, write(ctx))

	reason, err := read(ctx)
	require.NoError(t, err)
	require.Equal(t, "finished", reason)
	require.EqualValues(t, 2, srv.Responses())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestNewBlockingDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(ctx, "127.0.0.1:1", WithBlockingDial())
	require.ErrorIs(t, err, ErrConnection)
	require.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestNewInvalidOptions(t *testing.T) {
	_, err := New(context.Background(), "127.0.0.1:1", WithQueueCapacity(-1))
	require.Error(t, err)

	_, err = New(context.Background(), "127.0.0.1:1", WithLogger(nil))
	require.Error(t, err)

	_, err = New(context.Background(), "127.0.0.1:1", WithKeepalive(-time.Second, 0))
	require.Error(t, err)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
