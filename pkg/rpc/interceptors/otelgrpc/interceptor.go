package otelgrpc

import (
	"time"

	"github.com/gogo/status"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	"github.com/kakao/deadlockbench/pkg/rpc/interceptors"
)

const (
	instrumentationName = "github.com/kakao/deadlockbench/pkg/rpc/interceptors/otelgrpc"
)

// StreamServerInterceptor returns a stream server interceptor that records
// how long each stream lives, in milliseconds, and how many requests it
// carried. Detect streams are long-lived, so the unit is coarser than the
// microseconds used for unary calls.
func StreamServerInterceptor(meterProvider metric.MeterProvider) grpc.StreamServerInterceptor {
	meter := meterProvider.Meter(
		instrumentationName,
		metric.WithSchemaURL(semconv.SchemaURL),
	)
	rpcServerDuration, err := meter.Int64Histogram(
		"rpc.server.duration",
		metric.WithDescription("measures duration of inbound streams in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		otel.Handle(err)
	}
	rpcServerRequests, err := meter.Int64Counter(
		"rpc.server.requests_per_rpc",
		metric.WithDescription("counts messages received on inbound streams"),
		metric.WithUnit("{count}"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		code := codes.OK
		cs := &countingServerStream{ServerStream: ss}

		defer func(start time.Time) {
			elapsedTime := time.Since(start) / time.Millisecond

			attrs := make([]attribute.KeyValue, 0, 4)
			attrs = append(attrs, semconv.RPCSystemGRPC, semconv.RPCGRPCStatusCodeKey.Int64(int64(code)))
			service, method := interceptors.ParseFullMethod(info.FullMethod)
			if service != "" {
				attrs = append(attrs, semconv.RPCServiceKey.String(service))
			}
			if method != "" {
				attrs = append(attrs, semconv.RPCMethodKey.String(method))
			}

			opt := metric.WithAttributes(attrs...)
			ctx := ss.Context()
			rpcServerDuration.Record(ctx, int64(elapsedTime), opt)
			rpcServerRequests.Add(ctx, cs.received, opt)
		}(time.Now())

		err = handler(srv, cs)
		if err != nil {
			code = status.Convert(err).Code()
		}
		return err
	}
}

type countingServerStream struct {
	grpc.ServerStream
	received int64
}

func (s *countingServerStream) RecvMsg(m interface{}) error {
	err := s.ServerStream.RecvMsg(m)
	if err == nil {
		s.received++
	}
	return err
}
