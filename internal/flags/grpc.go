package flags

import (
	"fmt"
	"math"

	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"

	"github.com/kakao/deadlockbench/pkg/util/units"
)

const (
	CategoryGRPC = "gRPC:"
)

// byteSizeFlag returns a flag taking a size such as "32KiB" that must not
// exceed maxSize.
func byteSizeFlag(name, env, usage string, maxSize int64) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     name,
		Category: CategoryGRPC,
		EnvVars:  []string{env},
		Usage:    usage,
		Action: func(_ *cli.Context, value string) error {
			if _, err := units.FromByteSizeString(value, 0, maxSize); err != nil {
				return fmt.Errorf("invalid value \"%s\" for flag --%s", value, name)
			}
			return nil
		},
	}
}

var (
	// GRPCServerReadBufferSize sets the fake service's read buffer size for
	// a single read syscall.
	//
	// See:
	//   - https://pkg.go.dev/google.golang.org/grpc#ReadBufferSize
	GRPCServerReadBufferSize = byteSizeFlag(
		"grpc-server-read-buffer-size",
		"GRPC_SERVER_READ_BUFFER_SIZE",
		"Set the gRPC server's read buffer size for a single read syscall. If not set, the default value of 32KiB defined by gRPC will be used.",
		math.MaxInt32,
	)
	// GRPCServerWriteBufferSize sets the fake service's write buffer size
	// for a single write syscall.
	//
	// See:
	//   - https://pkg.go.dev/google.golang.org/grpc#WriteBufferSize
	GRPCServerWriteBufferSize = byteSizeFlag(
		"grpc-server-write-buffer-size",
		"GRPC_SERVER_WRITE_BUFFER_SIZE",
		"Set the gRPC server's write buffer size for a single write syscall. If not set, the default value of 32KiB defined by gRPC will be used.",
		math.MaxInt32,
	)
	// GRPCClientReadBufferSize sets the client's read buffer size for a
	// single read syscall.
	//
	// See:
	//   - https://pkg.go.dev/google.golang.org/grpc#WithReadBufferSize
	GRPCClientReadBufferSize = byteSizeFlag(
		"grpc-client-read-buffer-size",
		"GRPC_CLIENT_READ_BUFFER_SIZE",
		"Set the gRPC client's read buffer size for a single read syscall. If not set, the default value of 32KiB defined by gRPC will be used.",
		math.MaxInt32,
	)
	// GRPCClientWriteBufferSize sets the client's write buffer size for a
	// single write syscall.
	//
	// See:
	//   - https://pkg.go.dev/google.golang.org/grpc#WithWriteBufferSize
	GRPCClientWriteBufferSize = byteSizeFlag(
		"grpc-client-write-buffer-size",
		"GRPC_CLIENT_WRITE_BUFFER_SIZE",
		"Set the gRPC client's write buffer size for a single write syscall. If not set, the default value of 32KiB defined by gRPC will be used.",
		math.MaxInt32,
	)
	// GRPCClientInitialConnWindowSize sets the client's initial window size
	// for a connection.
	//
	// See:
	//   - https://pkg.go.dev/google.golang.org/grpc#WithInitialConnWindowSize
	GRPCClientInitialConnWindowSize = byteSizeFlag(
		"grpc-client-initial-conn-window-size",
		"GRPC_CLIENT_INITIAL_CONN_WINDOW_SIZE",
		"Set the gRPC client's initial window size for a connection. If not set, the default value of 64KiB defined by gRPC will be used.",
		math.MaxInt32,
	)
	// GRPCClientInitialWindowSize sets the client's initial window size for
	// a stream.
	//
	// See:
	//   - https://pkg.go.dev/google.golang.org/grpc#WithInitialWindowSize
	GRPCClientInitialWindowSize = byteSizeFlag(
		"grpc-client-initial-window-size",
		"GRPC_CLIENT_INITIAL_WINDOW_SIZE",
		"Set the gRPC client's initial window size for a stream. If not set, the default value of 64KiB defined by gRPC will be used.",
		math.MaxInt32,
	)
)

// byteSize returns the size given to flag and whether the flag was set.
func byteSize(c *cli.Context, flag *cli.StringFlag) (int, bool, error) {
	if !c.IsSet(flag.Name) {
		return 0, false, nil
	}
	size, err := units.FromByteSizeString(c.String(flag.Name), 0, math.MaxInt32)
	if err != nil {
		return 0, false, err
	}
	return int(size), true, nil
}

func ParseGRPCServerOptionFlags(c *cli.Context) (opts []grpc.ServerOption, _ error) {
	if size, ok, err := byteSize(c, GRPCServerReadBufferSize); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, grpc.ReadBufferSize(size))
	}
	if size, ok, err := byteSize(c, GRPCServerWriteBufferSize); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, grpc.WriteBufferSize(size))
	}
	return opts, nil
}

func ParseGRPCDialOptionFlags(c *cli.Context) (opts []grpc.DialOption, _ error) {
	if size, ok, err := byteSize(c, GRPCClientReadBufferSize); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, grpc.WithReadBufferSize(size))
	}
	if size, ok, err := byteSize(c, GRPCClientWriteBufferSize); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, grpc.WithWriteBufferSize(size))
	}
	if size, ok, err := byteSize(c, GRPCClientInitialConnWindowSize); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, grpc.WithInitialConnWindowSize(int32(size)))
	}
	if size, ok, err := byteSize(c, GRPCClientInitialWindowSize); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, grpc.WithInitialWindowSize(int32(size)))
	}
	return opts, nil
}
