package log

import (
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultLogLevel = zapcore.InfoLevel

	defaultMaxSizeMB  = 100 // 100MB
	defaultMaxAgeDays = 0   // retain all
	defaultMaxBackups = 0   // retain all
	defaultLogDirMode = os.FileMode(0755)

	touchFileName = ".touch"
	touchFileMode = os.FileMode(0600)
)

type config struct {
	disableLogToStderr bool

	humanFriendly bool
	level         zapcore.Level
	zapOpts       []zap.Option

	// log rotate
	path       string
	maxSizeMB  int
	maxAgeDays int
	maxBackups int
	compress   bool
	localTime  bool
	logDirMode os.FileMode
}

func newConfig(opts []Option) (cfg config, err error) {
	cfg = config{
		level:      defaultLogLevel,
		maxSizeMB:  defaultMaxSizeMB,
		maxAgeDays: defaultMaxAgeDays,
		maxBackups: defaultMaxBackups,
		logDirMode: defaultLogDirMode,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	err = cfg.validate()
	return cfg, err
}

func (c config) validate() error {
	if c.disableLogToStderr && len(c.path) == 0 {
		return errors.New("logger: no output")
	}
	if len(c.path) > 0 {
		if c.path[len(c.path)-1] == '/' {
			return errors.New("logger: invalid file path")
		}
		if err := os.MkdirAll(filepath.Dir(c.path), c.logDirMode); err != nil {
			return err
		}
		if err := checkWritableDir(filepath.Dir(c.path)); err != nil {
			return err
		}
	}
	if c.maxSizeMB <= 0 {
		return errors.New("logger: non-positive max size")
	}
	if c.maxAgeDays < 0 || c.maxBackups < 0 {
		return errors.New("logger: negative retention")
	}
	return nil
}

func checkWritableDir(dir string) error {
	filename := filepath.Join(dir, touchFileName)
	if err := os.WriteFile(filename, nil, touchFileMode); err != nil {
		return err
	}
	return os.Remove(filename)
}

type Option func(*config)

func WithoutLogToStderr() Option {
	return func(c *config) {
		c.disableLogToStderr = true
	}
}

// WithPath writes logs to the file at path as well, rotating it with
// lumberjack.
func WithPath(path string) Option {
	return func(c *config) {
		c.path = path
	}
}

func WithMaxSizeMB(maxSizeMB int) Option {
	return func(c *config) {
		c.maxSizeMB = maxSizeMB
	}
}

func WithAgeDays(maxAgeDays int) Option {
	return func(c *config) {
		c.maxAgeDays = maxAgeDays
	}
}

func WithMaxBackups(maxBackups int) Option {
	return func(c *config) {
		c.maxBackups = maxBackups
	}
}

func WithLocalTime() Option {
	return func(c *config) {
		c.localTime = true
	}
}

func WithCompression() Option {
	return func(c *config) {
		c.compress = true
	}
}

// WithHumanFriendly uses the console encoder instead of JSON.
func WithHumanFriendly() Option {
	return func(c *config) {
		c.humanFriendly = true
	}
}

func WithLogLevel(level zapcore.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

func WithZapLoggerOptions(opts ...zap.Option) Option {
	return func(c *config) {
		c.zapOpts = opts
	}
}
