package rpc

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type managerConfig struct {
	defaultGRPCDialOptions []grpc.DialOption
	keepaliveTime          time.Duration
	keepaliveTimeout       time.Duration
	logger                 *zap.Logger
}

func newManagerConfig(opts []ManagerOption) (managerConfig, error) {
	cfg := managerConfig{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt.applyManager(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	if cfg.keepaliveTime > 0 {
		cfg.defaultGRPCDialOptions = append(cfg.defaultGRPCDialOptions, WithKeepalive(cfg.keepaliveTime, cfg.keepaliveTimeout))
	}
	cfg.logger = cfg.logger.Named("rpc")
	return cfg, nil
}

func (cfg *managerConfig) validate() error {
	if cfg.logger == nil {
		return errors.New("rpc: logger is nil")
	}
	if cfg.keepaliveTime < 0 || cfg.keepaliveTimeout < 0 {
		return errors.New("rpc: negative keepalive")
	}
	return nil
}

// ManagerOption configures a Manager.
type ManagerOption interface {
	applyManager(*managerConfig)
}

type funcManagerOption struct {
	f func(*managerConfig)
}

func newFuncManagerOption(f func(*managerConfig)) *funcManagerOption {
	return &funcManagerOption{f: f}
}

func (fmo *funcManagerOption) applyManager(cfg *managerConfig) {
	fmo.f(cfg)
}

// WithDefaultGRPCDialOptions sets DialOptions applied to every connection the
// Manager creates, before the per-call options.
func WithDefaultGRPCDialOptions(defaultGRPCDialOptions ...grpc.DialOption) ManagerOption {
	return newFuncManagerOption(func(cfg *managerConfig) {
		cfg.defaultGRPCDialOptions = defaultGRPCDialOptions
	})
}

// WithConnKeepalive enables client keepalive on every managed connection. A
// zero keepaliveTime disables it.
func WithConnKeepalive(keepaliveTime, keepaliveTimeout time.Duration) ManagerOption {
	return newFuncManagerOption(func(cfg *managerConfig) {
		cfg.keepaliveTime = keepaliveTime
		cfg.keepaliveTimeout = keepaliveTimeout
	})
}

// WithLogger sets a logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return newFuncManagerOption(func(cfg *managerConfig) {
		cfg.logger = logger
	})
}
