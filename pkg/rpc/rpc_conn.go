package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

const (
	DefaultKeepaliveTime    = 10 * time.Second
	DefaultKeepaliveTimeout = 3 * time.Second
)

var defaultDialOptions = []grpc.DialOption{
	grpc.WithTransportCredentials(insecure.NewCredentials()),
}

// Conn wraps a gRPC client connection so that it can be closed more than
// once.
type Conn struct {
	Conn *grpc.ClientConn
	addr string
	once sync.Once
}

// NewConn creates a connection to the address without waiting for it to be
// ready. Transport failures show up at the first stream opened on it.
func NewConn(ctx context.Context, address string, opts ...grpc.DialOption) (*Conn, error) {
	dialOpts := make([]grpc.DialOption, 0, len(defaultDialOptions)+len(opts))
	dialOpts = append(dialOpts, defaultDialOptions...)
	dialOpts = append(dialOpts, opts...)
	conn, err := grpc.DialContext(ctx, address, dialOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "rpc: %s", address)
	}
	return &Conn{Conn: conn, addr: address}, nil
}

// NewBlockingConn creates a connection and waits until it is ready or ctx is
// done.
func NewBlockingConn(ctx context.Context, address string, opts ...grpc.DialOption) (*Conn, error) {
	return NewConn(ctx, address, append(opts, grpc.WithBlock(), grpc.WithReturnConnectionError())...)
}

// WithKeepalive returns a DialOption that pings the server every keepaliveTime
// and drops the connection when a ping is not acknowledged within
// keepaliveTimeout. Pings are sent even when no stream is active.
func WithKeepalive(keepaliveTime, keepaliveTimeout time.Duration) grpc.DialOption {
	return grpc.WithKeepaliveParams(keepalive.ClientParameters{
		Time:                keepaliveTime,
		Timeout:             keepaliveTimeout,
		PermitWithoutStream: true,
	})
}

// Address returns the target address.
func (c *Conn) Address() string {
	return c.addr
}

func (c *Conn) Close() (err error) {
	c.once.Do(func() {
		if c.Conn != nil {
			err = errors.Wrap(c.Conn.Close(), "rpc")
		}
	})
	return err
}
