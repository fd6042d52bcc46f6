package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kakao/deadlockbench/internal/benchmark"
	"github.com/kakao/deadlockbench/internal/generator"
	"github.com/kakao/deadlockbench/pkg/deadlocktest"
	"github.com/kakao/deadlockbench/pkg/rpc"
)

const (
	CategoryBenchmark = "Benchmark:"
	CategoryFake      = "Fake detector:"

	DefaultCleanUpDelayMillis = 3000
	DefaultReportInterval     = 5 * time.Second
	DefaultListen             = "127.0.0.1:20160"
)

var (
	Address = (&FlagDesc{
		Name:     "addr",
		Category: CategoryBenchmark,
		Aliases:  []string{"address"},
		Usage:    "Address of the deadlock detector.",
		Envs:     []string{"DEADLOCKBENCH_ADDR"},
	}).StringFlag(false, benchmark.DefaultAddress)

	ThreadNum = withIntAction((&FlagDesc{
		Name:     "thread-num",
		Category: CategoryBenchmark,
		Aliases:  []string{"workers"},
		Usage:    "Number of detect workers, each with its own connection and stream.",
		Envs:     []string{"DEADLOCKBENCH_THREAD_NUM"},
	}).IntFlag(false, benchmark.DefaultWorkers), 1)

	Requests = withIntAction((&FlagDesc{
		Name:     "requests",
		Category: CategoryBenchmark,
		Usage:    "Number of generated requests per worker.",
		Envs:     []string{"DEADLOCKBENCH_REQUESTS"},
	}).IntFlag(false, benchmark.DefaultRequests), 0)

	Range = withUint64Action((&FlagDesc{
		Name:     "range",
		Category: CategoryBenchmark,
		Usage:    "Size of the transaction id space.",
		Envs:     []string{"DEADLOCKBENCH_RANGE"},
	}).Uint64Flag(false, benchmark.DefaultRange), generator.MinRange)

	Delay = withIntAction((&FlagDesc{
		Name:     "delay",
		Category: CategoryBenchmark,
		Usage:    "Milliseconds the clean-up worker waits before sending.",
		Envs:     []string{"DEADLOCKBENCH_DELAY"},
	}).IntFlag(false, DefaultCleanUpDelayMillis), 0)

	Policy = withPolicyAction((&FlagDesc{
		Name:     "policy",
		Category: CategoryBenchmark,
		Usage:    fmt.Sprintf("Request generation policy: %v.", generator.Policies()),
		Envs:     []string{"DEADLOCKBENCH_POLICY"},
	}).StringFlag(false, benchmark.DefaultPolicy.String()))

	CleanUp = (&FlagDesc{
		Name:     "cleanup",
		Category: CategoryBenchmark,
		Usage:    "Run the clean-up worker. Use --cleanup=false to disable it.",
		Envs:     []string{"DEADLOCKBENCH_CLEANUP"},
	}).BoolFlag(benchmark.DefaultCleanUp)

	UniformPairCleanUp = (&FlagDesc{
		Name:     "uniform-pair-cleanup",
		Category: CategoryBenchmark,
		Usage:    "Send the CleanUpWaitFor of every generated edge right after its Detect. Requires --policy=uniform-pair.",
		Envs:     []string{"DEADLOCKBENCH_UNIFORM_PAIR_CLEANUP"},
	}).BoolFlag(false)

	QueueCapacity = withIntAction((&FlagDesc{
		Name:     "queue-capacity",
		Category: CategoryBenchmark,
		Usage:    "Capacity of the outbound queue of every stream. Zero means unbounded.",
		Envs:     []string{"DEADLOCKBENCH_QUEUE_CAPACITY"},
	}).IntFlag(false, 0), 0)

	Seed = (&FlagDesc{
		Name:        "seed",
		Category:    CategoryBenchmark,
		Usage:       "Seed of the request generators. Worker i uses seed+i.",
		Envs:        []string{"DEADLOCKBENCH_SEED"},
		DefaultText: "time based",
	}).Uint64Flag(false, 0)

	KeepaliveTime = (&FlagDesc{
		Name:     "keepalive-time",
		Category: CategoryBenchmark,
		Usage:    "Interval of client keepalive pings. Zero disables keepalive.",
		Envs:     []string{"DEADLOCKBENCH_KEEPALIVE_TIME"},
	}).DurationFlag(false, rpc.DefaultKeepaliveTime)

	KeepaliveTimeout = (&FlagDesc{
		Name:     "keepalive-timeout",
		Category: CategoryBenchmark,
		Usage:    "Time to wait for a keepalive ack before closing the connection.",
		Envs:     []string{"DEADLOCKBENCH_KEEPALIVE_TIMEOUT"},
	}).DurationFlag(false, rpc.DefaultKeepaliveTimeout)

	ReportInterval = (&FlagDesc{
		Name:     "report-interval",
		Category: CategoryBenchmark,
		Usage:    "Interval of progress logs. Zero disables them.",
		Envs:     []string{"DEADLOCKBENCH_REPORT_INTERVAL"},
	}).DurationFlag(false, DefaultReportInterval)

	PrintJSON = (&FlagDesc{
		Name:     "print-json",
		Category: CategoryBenchmark,
		Usage:    "Print the summary as JSON.",
		Envs:     []string{"DEADLOCKBENCH_PRINT_JSON"},
	}).BoolFlag(false)

	Listen = (&FlagDesc{
		Name:     "listen",
		Category: CategoryFake,
		Usage:    "Address the fake detector listens on.",
		Envs:     []string{"DEADLOCKBENCH_LISTEN"},
	}).StringFlag(false, DefaultListen)

	FakeMode = withModeAction((&FlagDesc{
		Name:     "mode",
		Category: CategoryFake,
		Usage:    "Behavior of the fake detector: detect, echo or silent.",
		Envs:     []string{"DEADLOCKBENCH_FAKE_MODE"},
	}).StringFlag(false, deadlocktest.ModeDetect.String()))

	StatusHTTP = (&FlagDesc{
		Name:     "status-http",
		Category: CategoryFake,
		Usage:    "Serve the status endpoint and pprof over HTTP on the listen address.",
		Envs:     []string{"DEADLOCKBENCH_STATUS_HTTP"},
	}).BoolFlag(true)
)

func withIntAction(f *cli.IntFlag, min int) *cli.IntFlag {
	f.Action = func(_ *cli.Context, value int) error {
		if value < min {
			return fmt.Errorf("invalid value \"%d\" for flag --%s", value, f.Name)
		}
		return nil
	}
	return f
}

func withUint64Action(f *cli.Uint64Flag, min uint64) *cli.Uint64Flag {
	f.Action = func(_ *cli.Context, value uint64) error {
		if value < min {
			return fmt.Errorf("invalid value \"%d\" for flag --%s", value, f.Name)
		}
		return nil
	}
	return f
}

func withPolicyAction(f *cli.StringFlag) *cli.StringFlag {
	f.Action = func(_ *cli.Context, value string) error {
		if _, err := generator.ParsePolicy(value); err != nil {
			return fmt.Errorf("invalid value \"%s\" for flag --%s", value, f.Name)
		}
		return nil
	}
	return f
}

func withModeAction(f *cli.StringFlag) *cli.StringFlag {
	f.Action = func(_ *cli.Context, value string) error {
		mode, err := deadlocktest.ParseMode(value)
		if err != nil || mode == deadlocktest.ModeEchoSentinels {
			return fmt.Errorf("invalid value \"%s\" for flag --%s", value, f.Name)
		}
		return nil
	}
	return f
}

// BenchmarkFlags returns the flags read by ParseBenchmarkFlags.
func BenchmarkFlags() []cli.Flag {
	return []cli.Flag{
		Address,
		ThreadNum,
		Requests,
		Range,
		Delay,
		Policy,
		CleanUp,
		UniformPairCleanUp,
		QueueCapacity,
		Seed,
		KeepaliveTime,
		KeepaliveTimeout,
		ReportInterval,
		PrintJSON,
		GRPCClientReadBufferSize,
		GRPCClientWriteBufferSize,
		GRPCClientInitialConnWindowSize,
		GRPCClientInitialWindowSize,
	}
}

// ParseBenchmarkFlags returns options of benchmark.New. Logger, meter
// provider and output are left to the caller.
func ParseBenchmarkFlags(c *cli.Context) ([]benchmark.Option, error) {
	policy, err := generator.ParsePolicy(c.String(Policy.Name))
	if err != nil {
		return nil, err
	}

	grpcDialOptions, err := ParseGRPCDialOptionFlags(c)
	if err != nil {
		return nil, err
	}

	opts := []benchmark.Option{
		benchmark.WithAddress(c.String(Address.Name)),
		benchmark.WithWorkers(c.Int(ThreadNum.Name)),
		benchmark.WithRequests(c.Int(Requests.Name)),
		benchmark.WithRange(c.Uint64(Range.Name)),
		benchmark.WithPolicy(policy),
		benchmark.WithCleanUp(c.Bool(CleanUp.Name)),
		benchmark.WithCleanUpDelay(time.Duration(c.Int(Delay.Name)) * time.Millisecond),
		benchmark.WithUniformPairCleanUp(c.Bool(UniformPairCleanUp.Name)),
		benchmark.WithQueueCapacity(c.Int(QueueCapacity.Name)),
		benchmark.WithSeed(c.Uint64(Seed.Name)),
		benchmark.WithKeepalive(c.Duration(KeepaliveTime.Name), c.Duration(KeepaliveTimeout.Name)),
		benchmark.WithReportInterval(c.Duration(ReportInterval.Name)),
		benchmark.WithGRPCDialOptions(grpcDialOptions...),
	}
	if c.Bool(PrintJSON.Name) {
		opts = append(opts, benchmark.WithReportEncoder(benchmark.JSONEncoder{}))
	}
	return opts, nil
}

// FakeFlags returns the flags of the fake detector.
func FakeFlags() []cli.Flag {
	return []cli.Flag{
		Listen,
		FakeMode,
		StatusHTTP,
		GRPCServerReadBufferSize,
		GRPCServerWriteBufferSize,
	}
}
