package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

// TestNewConn returns an in-memory listener and a function that dials it. The
// caller serves on the listener and closes both the connections and the
// listener.
func TestNewConn(t testing.TB, ctx context.Context, bufsize ...int) (listener *bufconn.Listener, connect func(opts ...grpc.DialOption) *Conn) {
	t.Helper()

	sz := 1 << 16
	if len(bufsize) > 0 {
		sz = bufsize[0]
	}
	lis := bufconn.Listen(sz)
	connect = func(opts ...grpc.DialOption) *Conn {
		dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		})
		conn, err := NewConn(ctx, "bufnet", append([]grpc.DialOption{dialer}, opts...)...)
		require.NoError(t, err)
		return conn
	}
	return lis, connect
}
