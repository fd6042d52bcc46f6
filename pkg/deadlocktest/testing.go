package deadlocktest

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StartServer runs a fake service on a loopback port until the test ends.
func StartServer(t testing.TB, opts ...Option) (srv *Server, addr string) {
	t.Helper()

	srv, err := New(opts...)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, srv.Serve(lis))
	}()
	t.Cleanup(func() {
		srv.Stop()
		wg.Wait()
	})
	return srv, lis.Addr().String()
}
