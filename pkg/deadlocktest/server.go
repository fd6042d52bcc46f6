// Package deadlocktest provides a fake deadlock detection service that speaks
// the Detect stream protocol, for tests and local dry runs.
package deadlocktest

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/pingcap/kvproto/pkg/deadlock"
	"github.com/soheilhy/cmux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/kakao/deadlockbench/pkg/rpc"
	"github.com/kakao/deadlockbench/pkg/rpc/interceptors/logging"
	"github.com/kakao/deadlockbench/pkg/rpc/interceptors/otelgrpc"
	"github.com/kakao/deadlockbench/proto/deadlockpb"
)

type Server struct {
	config

	detector     *Detector
	grpcServer   *grpc.Server
	statusServer *http.Server

	lifecycle struct {
		sync.Mutex
		stopped   bool
		listeners []net.Listener
	}

	mu       sync.Mutex
	received []deadlock.DeadlockRequest

	responses atomic.Int64
	streams   atomic.Int64
}

var _ deadlock.DeadlockServer = (*Server)(nil)

func New(opts ...Option) (*Server, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	s := &Server{
		config:   cfg,
		detector: NewDetector(),
	}
	grpcOptions := append([]grpc.ServerOption{
		grpc.ChainStreamInterceptor(
			otelgrpc.StreamServerInterceptor(cfg.meterProvider),
			logging.StreamServerInterceptor(cfg.logger),
		),
	}, cfg.grpcOptions...)
	s.grpcServer = rpc.NewServer(grpcOptions...)
	deadlock.RegisterDeadlockServer(s.grpcServer, s)
	if cfg.httpStatus {
		s.statusServer = newStatusServer(s)
	}
	return s, nil
}

// Serve accepts connections on lis until Stop is called. With
// WithHTTPStatus, HTTP/1 requests on lis are served by the status server and
// everything else by gRPC.
func (s *Server) Serve(lis net.Listener) error {
	s.lifecycle.Lock()
	if s.lifecycle.stopped {
		s.lifecycle.Unlock()
		return lis.Close()
	}
	s.lifecycle.listeners = append(s.lifecycle.listeners, lis)
	s.lifecycle.Unlock()

	s.logger.Info("serving", zap.String("addr", lis.Addr().String()), zap.Stringer("mode", s.mode), zap.Bool("httpStatus", s.statusServer != nil))
	if s.statusServer == nil {
		return s.serveGRPC(lis)
	}

	mux := cmux.New(lis)
	httpL := mux.Match(cmux.HTTP1Fast())
	grpcL := mux.Match(cmux.Any())

	var g errgroup.Group
	g.Go(func() error {
		return s.serveGRPC(grpcL)
	})
	g.Go(func() error {
		err := s.statusServer.Serve(httpL)
		if errors.Is(err, http.ErrServerClosed) || isListenerClosed(err) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := mux.Serve(); !isListenerClosed(err) {
			return err
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) serveGRPC(lis net.Listener) error {
	err := s.grpcServer.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) || isListenerClosed(err) {
		return nil
	}
	return err
}

// isListenerClosed reports whether err is how a listener, or a cmux listener
// on top of it, says it was closed by Stop.
func isListenerClosed(err error) bool {
	return err == nil ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, cmux.ErrListenerClosed) ||
		errors.Is(err, cmux.ErrServerClosed)
}

// Stop closes the listeners and every open stream.
func (s *Server) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.lifecycle.stopped {
		return
	}
	s.lifecycle.stopped = true

	s.grpcServer.Stop()
	if s.statusServer != nil {
		if err := s.statusServer.Close(); err != nil {
			s.logger.Warn("could not close status server", zap.Error(err))
		}
	}
	for _, lis := range s.lifecycle.listeners {
		_ = lis.Close()
	}
}

func (s *Server) Detect(stream deadlock.Deadlock_DetectServer) error {
	s.streams.Add(1)
	defer s.streams.Add(-1)

	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			if s.mode == ModeSilent {
				<-stream.Context().Done()
				return stream.Context().Err()
			}
			return nil
		}
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.received = append(s.received, *req)
		s.mu.Unlock()

		rsp, ok := s.respond(req)
		if !ok {
			continue
		}
		if err := stream.Send(rsp); err != nil {
			return err
		}
		s.responses.Add(1)
	}
}

// GetWaitForEntries returns the edges of the wait-for graph kept in
// ModeDetect.
func (s *Server) GetWaitForEntries(context.Context, *deadlock.WaitForEntriesRequest) (*deadlock.WaitForEntriesResponse, error) {
	return &deadlock.WaitForEntriesResponse{Entries: s.detector.Entries()}, nil
}

func (s *Server) respond(req *deadlock.DeadlockRequest) (*deadlock.DeadlockResponse, bool) {
	switch s.mode {
	case ModeDetect:
		switch req.Tp {
		case deadlock.DeadlockRequestType_Detect:
			if keyHash, found := s.detector.Detect(req.Entry); found {
				return &deadlock.DeadlockResponse{Entry: req.Entry, DeadlockKeyHash: keyHash}, true
			}
		case deadlock.DeadlockRequestType_CleanUpWaitFor:
			s.detector.CleanUpWaitFor(req.Entry)
		case deadlock.DeadlockRequestType_CleanUp:
			s.detector.CleanUp(req.Entry.Txn)
		}
	case ModeEcho:
		if req.Tp == deadlock.DeadlockRequestType_Detect {
			return &deadlock.DeadlockResponse{Entry: req.Entry}, true
		}
	case ModeEchoSentinels:
		if req.Tp == deadlock.DeadlockRequestType_Detect && s.isSentinel(req.Entry) {
			return &deadlock.DeadlockResponse{Entry: req.Entry}, true
		}
	}
	return nil, false
}

func (s *Server) isSentinel(entry deadlock.WaitForEntry) bool {
	return slices.ContainsFunc(s.sentinels, func(sentinel deadlock.WaitForEntry) bool {
		return deadlockpb.SameEdge(sentinel, entry)
	})
}

// Received returns a copy of every request received so far, in arrival
// order per stream.
func (s *Server) Received() []deadlock.DeadlockRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.received)
}

// ReceivedCount returns the number of requests received so far.
func (s *Server) ReceivedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

// Responses returns the number of responses sent so far.
func (s *Server) Responses() int64 {
	return s.responses.Load()
}

// OpenStreams returns the number of Detect streams in progress.
func (s *Server) OpenStreams() int64 {
	return s.streams.Load()
}

// Detector returns the wait-for graph used in ModeDetect.
func (s *Server) Detector() *Detector {
	return s.detector
}
