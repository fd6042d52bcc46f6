package interceptors

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/peer"
)

func TestParseFullMethod(t *testing.T) {
	tcs := []struct {
		fullMethod string
		service    string
		method     string
	}{
		{
			fullMethod: "/deadlock.Deadlock/Detect",
			service:    "deadlock.Deadlock",
			method:     "Detect",
		},
		{
			fullMethod: "deadlock.Deadlock/Detect",
		},
		{
			fullMethod: "/deadlock.Deadlock/Detect/Inner",
		},
		{
			fullMethod: "/deadlock.Deadlock",
		},
		{
			fullMethod: "Detect",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.fullMethod, func(t *testing.T) {
			service, method := ParseFullMethod(tc.fullMethod)
			require.Equal(t, tc.service, service)
			require.Equal(t, tc.method, method)
		})
	}
}

func TestPeerAddress(t *testing.T) {
	require.Empty(t, PeerAddress(context.Background()))

	ctx := peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 20160},
	})
	require.Equal(t, "10.0.0.1", PeerAddress(ctx))

	ctx = peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{Port: 20160},
	})
	require.Equal(t, "127.0.0.1", PeerAddress(ctx))
}
