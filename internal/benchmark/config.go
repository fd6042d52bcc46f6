package benchmark

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/kakao/deadlockbench/internal/generator"
	"github.com/kakao/deadlockbench/pkg/rpc"
)

const (
	DefaultAddress      = "127.0.0.1:20160"
	DefaultWorkers      = 1
	DefaultRequests     = 10000
	DefaultRange        = generator.DefaultRange
	DefaultPolicy       = generator.DefaultPolicy
	DefaultCleanUp      = true
	DefaultCleanUpDelay = 3 * time.Second
)

type config struct {
	addr               string
	workers            int
	requests           int
	idRange            uint64
	policy             generator.Policy
	cleanUp            bool
	cleanUpDelay       time.Duration
	uniformPairCleanUp bool
	queueCapacity      int
	seed               uint64
	grpcDialOptions    []grpc.DialOption
	keepaliveTime      time.Duration
	keepaliveTimeout   time.Duration
	reportInterval     time.Duration
	encoder            ReportEncoder
	output             io.Writer
	logger             *zap.Logger
	meterProvider      metric.MeterProvider
}

func newConfig(opts []Option) (config, error) {
	cfg := config{
		addr:             DefaultAddress,
		workers:          DefaultWorkers,
		requests:         DefaultRequests,
		idRange:          DefaultRange,
		policy:           DefaultPolicy,
		cleanUp:          DefaultCleanUp,
		cleanUpDelay:     DefaultCleanUpDelay,
		keepaliveTime:    rpc.DefaultKeepaliveTime,
		keepaliveTimeout: rpc.DefaultKeepaliveTimeout,
		encoder:          StringEncoder{},
		output:           os.Stdout,
		logger:           zap.NewNop(),
		meterProvider:    noop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	cfg.logger = cfg.logger.Named("benchmark")
	return cfg, nil
}

func (cfg *config) validate() error {
	if len(cfg.addr) == 0 {
		return errors.New("benchmark: no address")
	}
	if cfg.workers < 1 {
		return fmt.Errorf("benchmark: non-positive workers %d", cfg.workers)
	}
	if cfg.requests < 0 {
		return fmt.Errorf("benchmark: negative requests %d", cfg.requests)
	}
	if cfg.idRange < generator.MinRange {
		return fmt.Errorf("benchmark: %w: %d", generator.ErrInvalidRange, cfg.idRange)
	}
	switch cfg.policy {
	case generator.PolicySlidingWindow:
		// Timestamps, and thus txn ids, grow up to requests-1; they must
		// stay below the sentinel ids.
		if cfg.idRange >= math.MaxUint64-1-uint64(cfg.requests) {
			return fmt.Errorf("benchmark: %w: requests %d plus range %d reach sentinel ids", generator.ErrInvalidRange, cfg.requests, cfg.idRange)
		}
	case generator.PolicyUniformPair, generator.PolicyUniformKind:
		if cfg.idRange > generator.MaxUniformRange {
			return fmt.Errorf("benchmark: %w: %d", generator.ErrInvalidRange, cfg.idRange)
		}
	default:
		return fmt.Errorf("benchmark: invalid policy %v", cfg.policy)
	}
	if cfg.uniformPairCleanUp && cfg.policy != generator.PolicyUniformPair {
		return fmt.Errorf("benchmark: pairwise clean-up requires %v, not %v", generator.PolicyUniformPair, cfg.policy)
	}
	if cfg.cleanUpDelay < 0 {
		return fmt.Errorf("benchmark: negative clean-up delay %s", cfg.cleanUpDelay)
	}
	if cfg.queueCapacity < 0 {
		return fmt.Errorf("benchmark: negative queue capacity %d", cfg.queueCapacity)
	}
	if cfg.keepaliveTime < 0 || cfg.keepaliveTimeout < 0 {
		return fmt.Errorf("benchmark: negative keepalive %s/%s", cfg.keepaliveTime, cfg.keepaliveTimeout)
	}
	if cfg.reportInterval < 0 {
		return fmt.Errorf("benchmark: negative report interval %s", cfg.reportInterval)
	}
	if cfg.encoder == nil {
		return errors.New("benchmark: report encoder is nil")
	}
	if cfg.output == nil {
		return errors.New("benchmark: output is nil")
	}
	if cfg.logger == nil {
		return errors.New("benchmark: logger is nil")
	}
	if cfg.meterProvider == nil {
		return errors.New("benchmark: meter provider is nil")
	}
	return nil
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

// WithAddress sets the address of the deadlock detector.
func WithAddress(addr string) Option {
	return newFuncOption(func(cfg *config) {
		cfg.addr = addr
	})
}

// WithWorkers sets the number of detect workers, each with its own
// connection and stream.
func WithWorkers(workers int) Option {
	return newFuncOption(func(cfg *config) {
		cfg.workers = workers
	})
}

// WithRequests sets the number of generated requests per worker.
func WithRequests(requests int) Option {
	return newFuncOption(func(cfg *config) {
		cfg.requests = requests
	})
}

func WithRange(idRange uint64) Option {
	return newFuncOption(func(cfg *config) {
		cfg.idRange = idRange
	})
}

func WithPolicy(policy generator.Policy) Option {
	return newFuncOption(func(cfg *config) {
		cfg.policy = policy
	})
}

// WithCleanUp enables the clean-up worker.
func WithCleanUp(cleanUp bool) Option {
	return newFuncOption(func(cfg *config) {
		cfg.cleanUp = cleanUp
	})
}

// WithCleanUpDelay sets how long the clean-up worker waits before it starts
// sending.
func WithCleanUpDelay(delay time.Duration) Option {
	return newFuncOption(func(cfg *config) {
		cfg.cleanUpDelay = delay
	})
}

// WithUniformPairCleanUp makes detect workers send the CleanUpWaitFor of every
// generated edge right after its Detect.
func WithUniformPairCleanUp(uniformPairCleanUp bool) Option {
	return newFuncOption(func(cfg *config) {
		cfg.uniformPairCleanUp = uniformPairCleanUp
	})
}

// WithQueueCapacity bounds the outbound queue of every session. Workers then
// wait for room instead of growing the queue.
func WithQueueCapacity(queueCapacity int) Option {
	return newFuncOption(func(cfg *config) {
		cfg.queueCapacity = queueCapacity
	})
}

// WithSeed seeds worker i with seed+i. Zero picks a seed from the clock.
func WithSeed(seed uint64) Option {
	return newFuncOption(func(cfg *config) {
		cfg.seed = seed
	})
}

func WithGRPCDialOptions(grpcDialOptions ...grpc.DialOption) Option {
	return newFuncOption(func(cfg *config) {
		cfg.grpcDialOptions = append(cfg.grpcDialOptions, grpcDialOptions...)
	})
}

func WithKeepalive(keepaliveTime, keepaliveTimeout time.Duration) Option {
	return newFuncOption(func(cfg *config) {
		cfg.keepaliveTime = keepaliveTime
		cfg.keepaliveTimeout = keepaliveTimeout
	})
}

// WithReportInterval logs progress periodically. Zero disables it.
func WithReportInterval(reportInterval time.Duration) Option {
	return newFuncOption(func(cfg *config) {
		cfg.reportInterval = reportInterval
	})
}

func WithReportEncoder(encoder ReportEncoder) Option {
	return newFuncOption(func(cfg *config) {
		cfg.encoder = encoder
	})
}

// WithOutput sets where the summary is written. It is os.Stdout by default.
func WithOutput(output io.Writer) Option {
	return newFuncOption(func(cfg *config) {
		cfg.output = output
	})
}

func WithLogger(logger *zap.Logger) Option {
	return newFuncOption(func(cfg *config) {
		cfg.logger = logger
	})
}

func WithMeterProvider(meterProvider metric.MeterProvider) Option {
	return newFuncOption(func(cfg *config) {
		cfg.meterProvider = meterProvider
	})
}
