package rpc

import "google.golang.org/grpc"

// NewServer calls grpc.NewServer. Importing this package registers the
// gogoproto codec, so servers created here decode kvproto messages without
// reflection.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	return grpc.NewServer(opts...)
}
