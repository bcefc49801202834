package control

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jroosing/pbench/internal/dataplane"
	"github.com/jroosing/pbench/internal/endpoint"
	"github.com/jroosing/pbench/internal/shutdown"
	"github.com/jroosing/pbench/internal/stats"
	"github.com/jroosing/pbench/internal/wire"
)

type clientState int

const (
	stateStartSent clientState = iota
	stateClientStarted
	stateClientDying
)

// Sample is one printed/observed DATA tick, handed to OnSample for the
// dashboard and run-history store to consume alongside the client's own
// stdout line.
type Sample struct {
	RecvPPS float64
	SentPPS float64
	Recv    uint64
	Sent    uint64
	LastSeq uint64
}

// Client runs the client side of the control-plane state machine: send
// START, await ACK, spawn the sender pool, process DATA to compute and
// print PPS, send STOP on shutdown.
type Client struct {
	Logger   *slog.Logger
	Family   endpoint.Family
	Host     string
	Port     int
	Threads  int
	Polling  bool
	Timeout  time.Duration // 0 disables the one-shot timeout
	Stop     *shutdown.Flag
	Print    func(line string) // defaults to fmt.Println; overridable for tests
	OnSample func(Sample)
}

// Run blocks until the benchmark completes (STOP sent) or an
// unrecoverable error occurs.
func (c *Client) Run() error {
	if c.Stop == nil {
		c.Stop = &shutdown.Flag{}
	}
	if c.Print == nil {
		c.Print = func(line string) { fmt.Println(line) }
	}
	logger := c.logger()

	conn, err := endpoint.Create(c.Family, c.Host, strconv.Itoa(c.Port), false)
	if err != nil {
		return err
	}
	defer conn.Close()

	threads := c.Threads
	if threads < 1 {
		threads = 1
	}

	start := wire.Frame{Cmd: wire.CmdStart, Threads: uint32(threads)}.Marshal()
	if _, err := conn.Write(start[:]); err != nil {
		return fmt.Errorf("control: failed to send START: %w", err)
	}

	state := stateStartSent
	var pool *dataplane.Pool
	var agg *stats.Aggregator
	var cancelTimeout func()
	defer func() {
		if cancelTimeout != nil {
			cancelTimeout()
		}
		if pool != nil {
			pool.Close()
		}
	}()

	var recvPrev, sentPrev uint64
	var lastTickTime time.Time
	seeded := false

	buf := make([]byte, wire.FrameSize+16)

	for state != stateClientDying {
		if c.Stop.IsSet() {
			break
		}

		_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, err := conn.Read(buf)

		switch {
		case err == nil:
			frame, ferr := wire.Unmarshal(buf[:n])
			if ferr != nil {
				continue
			}

			switch state {
			case stateStartSent:
				if frame.Cmd != wire.CmdAck {
					continue
				}
				pool, err = dataplane.NewPool(dataplane.RoleSender, threads, c.Family, c.Host, c.Port, c.Polling)
				if err != nil {
					return fmt.Errorf("control: failed to spawn sender pool: %w", err)
				}
				agg = stats.NewAggregator(pool)
				if c.Timeout > 0 {
					cancelTimeout = c.armTimeout()
				}
				logger.Info("client: started", "threads", threads)
				state = stateClientStarted

			case stateClientStarted:
				if frame.Cmd != wire.CmdData {
					continue
				}
				now := time.Now()
				sent := agg.Snapshot().PacketsTotal

				if !seeded {
					recvPrev, sentPrev, lastTickTime = frame.Recv, sent, now
					seeded = true
					continue
				}

				deltaMicros := float64(now.Sub(lastTickTime).Microseconds())
				if deltaMicros <= 0 {
					continue
				}
				recvPPS := float64(frame.Recv-recvPrev) * 1e6 / deltaMicros
				sentPPS := float64(sent-sentPrev) * 1e6 / deltaMicros

				c.Print(fmt.Sprintf("PPS: %d Sent: %d", int64(recvPPS), int64(sentPPS)))
				if c.OnSample != nil {
					c.OnSample(Sample{RecvPPS: recvPPS, SentPPS: sentPPS, Recv: frame.Recv, Sent: sent, LastSeq: frame.Seq})
				}

				recvPrev, sentPrev, lastTickTime = frame.Recv, sent, now
			}

		case isTimeout(err):
			// Tick: nothing received this second.
		default:
			if c.Stop.IsSet() {
				break
			}
			logger.Warn("client: control socket read error", "err", err)
		}
	}

	stop := wire.Frame{Cmd: wire.CmdStop}.Marshal()
	_, _ = conn.Write(stop[:])
	logger.Info("client: sent STOP")
	return nil
}

func (c *Client) armTimeout() func() {
	timer := time.AfterFunc(c.Timeout, c.Stop.Set)
	return func() { timer.Stop() }
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
