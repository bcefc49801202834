package control_test

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jroosing/pbench/internal/control"
	"github.com/jroosing/pbench/internal/endpoint"
	"github.com/jroosing/pbench/internal/shutdown"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

// TestLoopbackSingleThread is scenario S1 from SPEC_FULL.md: a single
// worker thread, client times out after a few seconds, both sides exit
// cleanly, and the client observes at least two printed PPS lines.
func TestLoopbackSingleThread(t *testing.T) {
	port := freePort(t)

	serverStop := &shutdown.Flag{}
	srv := &control.Server{Family: endpoint.V4, Host: "127.0.0.1", Port: port, Stop: serverStop}

	var srvWG sync.WaitGroup
	srvWG.Add(1)
	go func() {
		defer srvWG.Done()
		_ = srv.Run()
	}()

	var lines []string
	var mu sync.Mutex
	cli := &control.Client{
		Family:  endpoint.V4,
		Host:    "127.0.0.1",
		Port:    port,
		Threads: 1,
		Timeout: 3200 * time.Millisecond,
		Print: func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		},
	}

	err := cli.Run()
	require.NoError(t, err)

	serverStop.Set()
	srvWG.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(lines), 2, "client should print at least two PPS lines")
}

// TestLoopbackMultiThread is scenario S2: four worker threads; the
// server's last DATA sample reports a nonzero aggregate packet count.
func TestLoopbackMultiThread(t *testing.T) {
	port := freePort(t)

	serverStop := &shutdown.Flag{}
	var serverSamples []float64
	var mu sync.Mutex
	srv := &control.Server{
		Family: endpoint.V4, Host: "127.0.0.1", Port: port, Stop: serverStop,
		OnData: func(_, _ float64, packets, _ uint64) {
			mu.Lock()
			serverSamples = append(serverSamples, float64(packets))
			mu.Unlock()
		},
	}

	var srvWG sync.WaitGroup
	srvWG.Add(1)
	go func() {
		defer srvWG.Done()
		_ = srv.Run()
	}()

	cli := &control.Client{
		Family: endpoint.V4, Host: "127.0.0.1", Port: port,
		Threads: 4, Timeout: 3 * time.Second,
		Print: func(string) {},
	}

	require.NoError(t, cli.Run())
	serverStop.Set()
	srvWG.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, serverSamples)
	require.Positive(t, serverSamples[len(serverSamples)-1])
}

// TestEarlyShutdown is scenario S3: the client is asked to stop before
// any DATA is exchanged; both sides still terminate cleanly.
func TestEarlyShutdown(t *testing.T) {
	port := freePort(t)

	serverStop := &shutdown.Flag{}
	srv := &control.Server{Family: endpoint.V4, Host: "127.0.0.1", Port: port, Stop: serverStop}

	var srvWG sync.WaitGroup
	srvWG.Add(1)
	go func() {
		defer srvWG.Done()
		_ = srv.Run()
	}()

	clientStop := &shutdown.Flag{}
	cli := &control.Client{
		Family: endpoint.V4, Host: "127.0.0.1", Port: port,
		Threads: 1, Stop: clientStop, Print: func(string) {},
	}

	done := make(chan error, 1)
	go func() { done <- cli.Run() }()

	time.Sleep(50 * time.Millisecond)
	clientStop.Set()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("client did not exit after stop_requested")
	}

	serverStop.Set()
	srvWG.Wait()
}

// TestMalformedFrameDropped is scenario S5: a malformed datagram at the
// server's control port is discarded without disturbing server state.
func TestMalformedFrameDropped(t *testing.T) {
	port := freePort(t)

	serverStop := &shutdown.Flag{}
	srv := &control.Server{Family: endpoint.V4, Host: "127.0.0.1", Port: port, Stop: serverStop}

	var srvWG sync.WaitGroup
	srvWG.Add(1)
	go func() {
		defer srvWG.Done()
		_ = srv.Run()
	}()
	time.Sleep(50 * time.Millisecond) // let the server bind

	injector, err := net.Dial("udp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	_, err = injector.Write(make([]byte, 10))
	require.NoError(t, err)
	require.NoError(t, injector.Close())

	// Server should still accept a real START afterward.
	cli := &control.Client{
		Family: endpoint.V4, Host: "127.0.0.1", Port: port,
		Threads: 1, Timeout: 2 * time.Second, Print: func(string) {},
	}
	require.NoError(t, cli.Run())

	serverStop.Set()
	srvWG.Wait()
}
