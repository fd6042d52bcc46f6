package generator

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultPolicy = PolicySlidingWindow
	DefaultRange  = uint64(1000)

	// MinRange is the smallest range with at least two distinct ids.
	MinRange = uint64(2)
	// MaxUniformRange keeps the uniform sentinel ids, range and range+1,
	// representable.
	MaxUniformRange = uint64(math.MaxUint64 - 1)
)

// ErrInvalidRange is returned for a range that cannot produce distinct ids or
// whose sentinels would overflow.
var ErrInvalidRange = errors.New("generator: invalid range")

type config struct {
	policy    Policy
	idRange   uint64
	seed      uint64
	seedIsSet bool
}

func newConfig(opts []Option) (config, error) {
	cfg := config{
		policy:  DefaultPolicy,
		idRange: DefaultRange,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (cfg *config) validate() error {
	if !cfg.policy.valid() {
		return fmt.Errorf("generator: invalid policy %v", cfg.policy)
	}
	if cfg.idRange < MinRange {
		return fmt.Errorf("%w: %d is less than %d", ErrInvalidRange, cfg.idRange, MinRange)
	}
	if cfg.policy != PolicySlidingWindow && cfg.idRange > MaxUniformRange {
		return fmt.Errorf("%w: %d overflows sentinel ids of %v", ErrInvalidRange, cfg.idRange, cfg.policy)
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

func WithPolicy(policy Policy) Option {
	return newFuncOption(func(cfg *config) {
		cfg.policy = policy
	})
}

// WithRange sets the size of the id space. It must be at least 2.
func WithRange(idRange uint64) Option {
	return newFuncOption(func(cfg *config) {
		cfg.idRange = idRange
	})
}

// WithSeed makes the generated sequence reproducible. Without it, the seed is
// taken from the clock.
func WithSeed(seed uint64) Option {
	return newFuncOption(func(cfg *config) {
		cfg.seed = seed
		cfg.seedIsSet = true
	})
}
