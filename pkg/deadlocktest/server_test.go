package deadlocktest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/pingcap/kvproto/pkg/deadlock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kakao/deadlockbench/pkg/rpc"
)

func openStream(t *testing.T, ctx context.Context, addr string) deadlock.Deadlock_DetectClient {
	t.Helper()

	conn, err := rpc.NewConn(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	stream, err := deadlock.NewDeadlockClient(conn.Conn).Detect(ctx)
	require.NoError(t, err)
	return stream
}

func detect(txn, waitForTxn, keyHash uint64) *deadlock.DeadlockRequest {
	return &deadlock.DeadlockRequest{
		Tp:    deadlock.DeadlockRequestType_Detect,
		Entry: deadlock.WaitForEntry{Txn: txn, WaitForTxn: waitForTxn, KeyHash: keyHash},
	}
}

func TestServerModeDetect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, addr := StartServer(t)
	stream := openStream(t, ctx, addr)

	require.NoError(t, stream.Send(detect(1, 2, 3)))
	require.NoError(t, stream.Send(&deadlock.DeadlockRequest{
		Tp:    deadlock.DeadlockRequestType_CleanUp,
		Entry: deadlock.WaitForEntry{Txn: 9},
	}))
	require.NoError(t, stream.Send(detect(2, 1, 4)))
	require.NoError(t, stream.CloseSend())

	rsp, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, deadlock.WaitForEntry{Txn: 2, WaitForTxn: 1, KeyHash: 4}, rsp.Entry)
	require.EqualValues(t, 3, rsp.DeadlockKeyHash)

	_, err = stream.Recv()
	require.ErrorIs(t, err, io.EOF)

	received := srv.Received()
	require.Len(t, received, 3)
	require.Equal(t, deadlock.DeadlockRequestType_CleanUp, received[1].Tp)
	require.EqualValues(t, 1, srv.Responses())
}

func TestServerGetWaitForEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, addr := StartServer(t)
	stream := openStream(t, ctx, addr)
	require.NoError(t, stream.Send(detect(3, 4, 30)))
	require.NoError(t, stream.Send(detect(1, 2, 10)))
	require.NoError(t, stream.CloseSend())
	_, err := stream.Recv()
	require.ErrorIs(t, err, io.EOF)

	conn, err := rpc.NewConn(ctx, addr)
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()
	rsp, err := deadlock.NewDeadlockClient(conn.Conn).GetWaitForEntries(ctx, &deadlock.WaitForEntriesRequest{})
	require.NoError(t, err)
	require.Equal(t, []deadlock.WaitForEntry{
		{Txn: 1, WaitForTxn: 2, KeyHash: 10},
		{Txn: 3, WaitForTxn: 4, KeyHash: 30},
	}, rsp.Entries)
}

func TestServerModeEchoSentinels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sentinel := deadlock.WaitForEntry{Txn: 100, WaitForTxn: 101, KeyHash: 100}
	srv, addr := StartServer(t, WithMode(ModeEchoSentinels), WithSentinels(sentinel))
	stream := openStream(t, ctx, addr)

	require.NoError(t, stream.Send(detect(1, 2, 3)))
	require.NoError(t, stream.Send(&deadlock.DeadlockRequest{Entry: sentinel}))
	require.NoError(t, stream.CloseSend())

	rsp, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, sentinel, rsp.Entry)

	_, err = stream.Recv()
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, srv.ReceivedCount())
}

func TestServerModeEcho(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, addr := StartServer(t, WithMode(ModeEcho))
	stream := openStream(t, ctx, addr)

	for i := uint64(0); i < 3; i++ {
		require.NoError(t, stream.Send(detect(i, i+1, i)))
	}
	require.NoError(t, stream.CloseSend())
	for i := uint64(0); i < 3; i++ {
		rsp, err := stream.Recv()
		require.NoError(t, err)
		require.Equal(t, i, rsp.Entry.Txn)
	}
}

func TestServerModeSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	srv, addr := StartServer(t, WithMode(ModeSilent))
	stream := openStream(t, ctx, addr)

	require.NoError(t, stream.Send(detect(1, 2, 3)))
	require.NoError(t, stream.CloseSend())

	errC := make(chan error, 1)
	go func() {
		_, err := stream.Recv()
		errC <- err
	}()

	select {
	case err := <-errC:
		t.Fatalf("unexpected response: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	require.Eventually(t, func() bool {
		return srv.ReceivedCount() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	err := <-errC
	require.Error(t, err)
	require.False(t, errors.Is(err, io.EOF))
}

func TestServerHTTPStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, addr := StartServer(t, WithMode(ModeEcho), WithHTTPStatus())
	stream := openStream(t, ctx, addr)

	for i := uint64(1); i <= 2; i++ {
		require.NoError(t, stream.Send(detect(i, i+1, 0)))
		_, err := stream.Recv()
		require.NoError(t, err)
	}

	client := &http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
		Timeout:   time.Second,
	}
	getStatus := func() (status Status, ok bool) {
		rsp, err := client.Get("http://" + addr + StatusPath)
		if err != nil {
			return status, false
		}
		defer func() {
			_ = rsp.Body.Close()
		}()
		if rsp.StatusCode != http.StatusOK {
			return status, false
		}
		return status, json.NewDecoder(rsp.Body).Decode(&status) == nil
	}
	want := Status{
		Mode:        "echo",
		Received:    2,
		Responses:   2,
		OpenStreams: 1,
	}
	require.Eventually(t, func() bool {
		status, ok := getStatus()
		return ok && status == want
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, stream.CloseSend())
	_, err := stream.Recv()
	require.ErrorIs(t, err, io.EOF)
}

func TestServerStopBeforeServe(t *testing.T) {
	srv, err := New(WithHTTPStatus())
	require.NoError(t, err)
	srv.Stop()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, srv.Serve(lis))
}

func TestServerStopWithHTTPStatus(t *testing.T) {
	for i := 0; i < 30; i++ {
		srv, err := New(WithMode(ModeEcho), WithHTTPStatus())
		require.NoError(t, err)

		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		errC := make(chan error, 1)
		go func() {
			errC <- srv.Serve(lis)
		}()
		if i%2 == 1 {
			// Let cmux reach Accept before stopping.
			time.Sleep(time.Millisecond)
		}
		srv.Stop()
		require.NoError(t, <-errC)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(WithMode(ModeEchoSentinels))
	require.Error(t, err)

	_, err = New(WithMode(Mode(-1)))
	require.Error(t, err)

	_, err = New(WithLogger(nil))
	require.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for _, mode := range []Mode{ModeDetect, ModeEcho, ModeEchoSentinels, ModeSilent} {
		got, err := ParseMode(mode.String())
		require.NoError(t, err)
		require.Equal(t, mode, got)
	}
	_, err := ParseMode("random")
	require.Error(t, err)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
