package session

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/kakao/deadlockbench/pkg/rpc"
)

type config struct {
	queueCapacity    int
	keepaliveTime    time.Duration
	keepaliveTimeout time.Duration
	blockingDial     bool
	grpcDialOptions  []grpc.DialOption
	logger           *zap.Logger
}

func newConfig(opts []Option) (config, error) {
	cfg := config{
		keepaliveTime:    rpc.DefaultKeepaliveTime,
		keepaliveTimeout: rpc.DefaultKeepaliveTimeout,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	cfg.logger = cfg.logger.Named("session")
	return cfg, nil
}

func (cfg *config) validate() error {
	if cfg.queueCapacity < 0 {
		return fmt.Errorf("session: negative queue capacity %d", cfg.queueCapacity)
	}
	if cfg.keepaliveTime < 0 || cfg.keepaliveTimeout < 0 {
		return fmt.Errorf("session: negative keepalive %s/%s", cfg.keepaliveTime, cfg.keepaliveTimeout)
	}
	if cfg.logger == nil {
		return errors.New("session: logger is nil")
	}
	return nil
}

func (cfg *config) dialOptions() []grpc.DialOption {
	opts := make([]grpc.DialOption, 0, len(cfg.grpcDialOptions)+1)
	if cfg.keepaliveTime > 0 {
		opts = append(opts, rpc.WithKeepalive(cfg.keepaliveTime, cfg.keepaliveTimeout))
	}
	return append(opts, cfg.grpcDialOptions...)
}

type Option interface {
	apply(*config)
}

type funcOption struct {
	f func(*config)
}

func newFuncOption(f func(*config)) *funcOption {
	return &funcOption{f: f}
}

func (fo *funcOption) apply(cfg *config) {
	fo.f(cfg)
}

// WithQueueCapacity bounds the outbound queue. Zero, the default, means
// unbounded.
func WithQueueCapacity(queueCapacity int) Option {
	return newFuncOption(func(cfg *config) {
		cfg.queueCapacity = queueCapacity
	})
}

// WithKeepalive sets the client keepalive used by New. A zero keepaliveTime
// disables keepalive.
func WithKeepalive(keepaliveTime, keepaliveTimeout time.Duration) Option {
	return newFuncOption(func(cfg *config) {
		cfg.keepaliveTime = keepaliveTime
		cfg.keepaliveTimeout = keepaliveTimeout
	})
}

// WithBlockingDial makes New wait until the connection is ready, so that an
// unreachable address fails New rather than the first stream.
func WithBlockingDial() Option {
	return newFuncOption(func(cfg *config) {
		cfg.blockingDial = true
	})
}

func WithGRPCDialOptions(grpcDialOptions ...grpc.DialOption) Option {
	return newFuncOption(func(cfg *config) {
		cfg.grpcDialOptions = append(cfg.grpcDialOptions, grpcDialOptions...)
	})
}

func WithLogger(logger *zap.Logger) Option {
	return newFuncOption(func(cfg *config) {
		cfg.logger = logger
	})
}
