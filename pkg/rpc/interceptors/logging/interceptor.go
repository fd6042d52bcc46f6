package logging

import (
	"time"

	"github.com/gogo/status"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/kakao/deadlockbench/pkg/rpc/interceptors"
)

// StreamServerInterceptor returns a stream server interceptor that logs every
// stream ending with an error. A nil logger disables it.
func StreamServerInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	if logger == nil {
		return func(srv interface{}, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
			return handler(srv, ss)
		}
	}

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		if err != nil {
			logger.Error(info.FullMethod,
				zap.Stringer("code", status.Convert(err).Code()),
				zap.Duration("duration", time.Since(start)),
				zap.String("peer", interceptors.PeerAddress(ss.Context())),
				zap.Error(err),
			)
		}
		return err
	}
}
