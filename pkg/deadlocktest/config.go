package deadlocktest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pingcap/kvproto/pkg/deadlock"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Mode decides which requests the fake service answers.
type Mode int

const (
	// ModeDetect keeps a wait-for graph and answers the Detect requests that
	// would close a cycle.
	ModeDetect Mode = iota
	// ModeEcho answers every Detect request.
	ModeEcho
	// ModeEchoSentinels answers only the Detect requests whose edge is one
	// of the configured sentinels.
	ModeEchoSentinels
	// ModeSilent never answers and keeps the stream open until the client
	// goes away.
	ModeSilent
)

var modeNames = map[Mode]string{
	ModeDetect:        "detect",
	ModeEcho:          "echo",
	ModeEchoSentinels: "echo-sentinels",
	ModeSilent:        "silent",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a name such as "silent" into a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("deadlocktest: unknown mode %q", s)
}

type config struct {
	mode          Mode
	sentinels     []deadlock.WaitForEntry
	logger        *zap.Logger
	meterProvider metric.MeterProvider
	grpcOptions   []grpc.ServerOption
	httpStatus    bool
}

func newConfig(opts []Option) (config, error) {
	cfg := config{
		mode:          ModeDetect,
		logger:        zap.NewNop(),
		meterProvider: noop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	cfg.logger = cfg.logger.Named("deadlocktest")
	return cfg, nil
}

func (cfg *config) validate() error {
	if _, ok := modeNames[cfg.mode]; !ok {
		return fmt.Errorf("deadlocktest: invalid mode %v", cfg.mode)
	}
	if cfg.mode == ModeEchoSentinels && len(cfg.sentinels) == 0 {
		return errors.New("deadlocktest: no sentinels to echo")
	}
	if cfg.logger == nil {
		return errors.New("deadlocktest: logger is nil")
	}
	if cfg.meterProvider == nil {
		return errors.New("deadlocktest: meter provider is nil")
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

func WithMode(mode Mode) Option {
	return newFuncOption(func(cfg *config) {
		cfg.mode = mode
	})
}

// WithSentinels sets the edges answered in ModeEchoSentinels.
func WithSentinels(sentinels ...deadlock.WaitForEntry) Option {
	return newFuncOption(func(cfg *config) {
		cfg.sentinels = append(cfg.sentinels, sentinels...)
	})
}

func WithLogger(logger *zap.Logger) Option {
	return newFuncOption(func(cfg *config) {
		cfg.logger = logger
	})
}

// WithMeterProvider records stream metrics through meterProvider.
func WithMeterProvider(meterProvider metric.MeterProvider) Option {
	return newFuncOption(func(cfg *config) {
		cfg.meterProvider = meterProvider
	})
}

// WithGRPCServerOptions adds options to the underlying gRPC server.
func WithGRPCServerOptions(grpcOptions ...grpc.ServerOption) Option {
	return newFuncOption(func(cfg *config) {
		cfg.grpcOptions = append(cfg.grpcOptions, grpcOptions...)
	})
}

// WithHTTPStatus serves a JSON status endpoint at StatusPath and the pprof
// handlers on the same listener as the Detect service.
func WithHTTPStatus() Option {
	return newFuncOption(func(cfg *config) {
		cfg.httpStatus = true
	})
}
