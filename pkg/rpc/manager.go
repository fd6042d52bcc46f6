package rpc

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type managedConn[T comparable] struct {
	rpcConn *Conn
	id      T
}

// Manager keeps one connection per identifier. The benchmark runner keys it
// by worker index so that every worker owns a separate HTTP/2 connection.
// Manager is safe for concurrent use.
type Manager[T comparable] struct {
	managerConfig

	mu     sync.Mutex
	conns  map[T]*managedConn[T]
	closed bool
}

// NewManager creates a Manager.
func NewManager[T comparable](opts ...ManagerOption) (*Manager[T], error) {
	cfg, err := newManagerConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Manager[T]{
		managerConfig: cfg,
		conns:         make(map[T]*managedConn[T]),
	}, nil
}

// GetOrConnect returns the connection cached for id, or dials addr if there
// is none. A cached connection to a different address is an error.
func (m *Manager[T]) GetOrConnect(ctx context.Context, id T, addr string, grpcDialOptions ...grpc.DialOption) (*Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("rpc: manager closed")
	}

	if mc, ok := m.conns[id]; ok {
		if mc.rpcConn.Address() != addr {
			return nil, fmt.Errorf("rpc: unexpected target %v address: cached=%s, requested=%s", id, mc.rpcConn.Address(), addr)
		}
		return mc.rpcConn, nil
	}

	opts := make([]grpc.DialOption, 0, len(m.defaultGRPCDialOptions)+len(grpcDialOptions))
	opts = append(opts, m.defaultGRPCDialOptions...)
	opts = append(opts, grpcDialOptions...)
	rpcConn, err := NewConn(ctx, addr, opts...)
	if err != nil {
		m.logger.Warn("could not connect", zap.Any("id", id), zap.String("addr", addr), zap.Error(err))
		return nil, err
	}
	m.conns[id] = &managedConn[T]{rpcConn: rpcConn, id: id}
	m.logger.Debug("connected", zap.Any("id", id), zap.String("addr", addr))
	return rpcConn, nil
}

// CloseClient closes the connection identified by id and forgets it. It
// returns nil if there is no such connection.
func (m *Manager[T]) CloseClient(id T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mc, ok := m.conns[id]
	if !ok {
		return nil
	}
	delete(m.conns, id)
	return mc.rpcConn.Close()
}

// Close closes every managed connection. Calling Close more than once is
// safe.
func (m *Manager[T]) Close() (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	for id, mc := range m.conns {
		err = multierr.Append(err, mc.rpcConn.Close())
		delete(m.conns, id)
	}
	return err
}
