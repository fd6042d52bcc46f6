package flags

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/goleak"
)

func runApp(t *testing.T, flags []cli.Flag, args []string, action cli.ActionFunc) error {
	t.Helper()
	app := &cli.App{
		Name:      "test",
		Flags:     flags,
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Action:    action,
	}
	return app.Run(append([]string{"test"}, args...))
}

func TestBenchmarkFlagsValidation(t *testing.T) {
	tcs := []struct {
		name string
		args []string
		ok   bool
	}{
		{name: "Defaults", args: nil, ok: true},
		{name: "AllSet", args: []string{
			"--addr=10.0.0.1:20160",
			"--thread-num=4",
			"--requests=0",
			"--range=2",
			"--delay=0",
			"--policy=uniform-pair",
			"--uniform-pair-cleanup",
			"--cleanup=false",
			"--queue-capacity=1024",
			"--seed=7",
			"--keepalive-time=0s",
			"--print-json",
			"--grpc-client-read-buffer-size=64KiB",
		}, ok: true},
		{name: "ZeroThreads", args: []string{"--thread-num=0"}, ok: false},
		{name: "NegativeRequests", args: []string{"--requests=-1"}, ok: false},
		{name: "RangeOne", args: []string{"--range=1"}, ok: false},
		{name: "NegativeDelay", args: []string{"--delay=-1"}, ok: false},
		{name: "UnknownPolicy", args: []string{"--policy=random"}, ok: false},
		{name: "NegativeQueueCapacity", args: []string{"--queue-capacity=-1"}, ok: false},
		{name: "BadBufferSize", args: []string{"--grpc-client-write-buffer-size=big"}, ok: false},
		{name: "WindowTooLarge", args: []string{"--grpc-client-initial-window-size=4GiB"}, ok: false},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := runApp(t, BenchmarkFlags(), tc.args, func(c *cli.Context) error {
				_, err := ParseBenchmarkFlags(c)
				return err
			})
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseBenchmarkFlags(t *testing.T) {
	err := runApp(t, BenchmarkFlags(), []string{"--print-json", "--policy=UNIFORM-KIND"}, func(c *cli.Context) error {
		opts, err := ParseBenchmarkFlags(c)
		require.NoError(t, err)
		// print-json adds the JSON encoder to the common options.
		require.Len(t, opts, 14)
		return nil
	})
	require.NoError(t, err)
}

func TestParseGRPCDialOptionFlags(t *testing.T) {
	err := runApp(t, BenchmarkFlags(), []string{
		"--grpc-client-read-buffer-size=32KiB",
		"--grpc-client-initial-conn-window-size=1MiB",
	}, func(c *cli.Context) error {
		opts, err := ParseGRPCDialOptionFlags(c)
		require.NoError(t, err)
		require.Len(t, opts, 2)
		return nil
	})
	require.NoError(t, err)
}

func TestFakeFlags(t *testing.T) {
	tcs := []struct {
		name string
		args []string
		ok   bool
	}{
		{name: "Defaults", ok: true},
		{name: "Silent", args: []string{"--mode=silent"}, ok: true},
		{name: "EchoSentinels", args: []string{"--mode=echo-sentinels"}, ok: false},
		{name: "Unknown", args: []string{"--mode=unknown"}, ok: false},
		{name: "ServerBuffer", args: []string{"--grpc-server-read-buffer-size=1MiB"}, ok: true},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := runApp(t, FakeFlags(), tc.args, func(c *cli.Context) error {
				_, err := ParseGRPCServerOptionFlags(c)
				return err
			})
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logDir := t.TempDir()
	err := runApp(t, LoggerFlags(), []string{
		"--logdir=" + logDir,
		"--loglevel=debug",
		"--log-human-readable",
	}, func(c *cli.Context) error {
		logger, err := NewLogger(c, "deadlockbench.log")
		if err != nil {
			return err
		}
		logger.Debug("hello")
		return logger.Sync()
	})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(logDir, "deadlockbench.log"))
}

func TestLoggerFlagsValidation(t *testing.T) {
	tcs := []struct {
		name string
		args []string
	}{
		{name: "NegativeBackups", args: []string{"--logfile-max-backups=-1"}},
		{name: "NegativeRetention", args: []string{"--logfile-retention-days=-1"}},
		{name: "ZeroMaxSize", args: []string{"--logfile-max-size-mb=0"}},
		{name: "UnknownLevel", args: []string{"--loglevel=verbose"}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := runApp(t, LoggerFlags(), tc.args, func(c *cli.Context) error {
				_, err := ParseLoggerFlags(c, "deadlockbench.log")
				return err
			})
			require.Error(t, err)
		})
	}
}

func TestParseTelemetryFlags(t *testing.T) {
	err := runApp(t, TelemetryFlags(), []string{"--telemetry-exporter=noop"}, func(c *cli.Context) error {
		opts, err := ParseTelemetryFlags(context.Background(), c, "deadlockbench", "test")
		require.NoError(t, err)
		// resource and exporter
		require.Len(t, opts, 2)
		return nil
	})
	require.NoError(t, err)

	err = runApp(t, TelemetryFlags(), []string{"--telemetry-exporter=prometheus"}, func(*cli.Context) error {
		return nil
	})
	require.Error(t, err)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}
