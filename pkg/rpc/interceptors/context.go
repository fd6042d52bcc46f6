package interceptors

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc/peer"
)

// PeerAddress returns the host of the remote peer in ctx, or an empty string
// if there is none.
func PeerAddress(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}

	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		// bufconn and unix sockets have no port.
		return p.Addr.String()
	}
	if host == "" {
		return "127.0.0.1"
	}
	return host
}

// ParseFullMethod splits a gRPC full method name, /package.service/method,
// into its service and method. Both are empty if fullMethod is malformed.
func ParseFullMethod(fullMethod string) (service, method string) {
	name, found := strings.CutPrefix(fullMethod, "/")
	if !found {
		return "", ""
	}
	service, method, found = strings.Cut(name, "/")
	if !found || strings.Contains(method, "/") {
		return "", ""
	}
	return service, method
}
