// Package control implements the client and server control-plane state
// machines: the START/ACK/STOP/DATA handshake carried over the control
// socket, the periodic DATA emission, and graceful shutdown.
package control

import (
	"errors"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/jroosing/pbench/internal/dataplane"
	"github.com/jroosing/pbench/internal/endpoint"
	"github.com/jroosing/pbench/internal/shutdown"
	"github.com/jroosing/pbench/internal/stats"
	"github.com/jroosing/pbench/internal/wire"
)

// serverState is the server side of the control-plane state machine.
type serverState int

const (
	stateStart serverState = iota
	stateStarted
	stateDying
)

// SampleFunc is called once per DATA emission, letting callers (the
// dashboard, the run-history store) observe live counters without
// coupling the state machine to either. Server passes 0 for both rates;
// only packets and lastSeq carry values.
type SampleFunc func(recvPPS, sentPPS float64, packets, lastSeq uint64)

// Server runs the server side of the control-plane state machine: accept
// START, reply ACK, spawn the receiver pool, periodically emit DATA,
// terminate on STOP.
type Server struct {
	Logger  *slog.Logger
	Family  endpoint.Family
	Host    string
	Port    int
	Polling bool
	Stop    *shutdown.Flag
	OnData  SampleFunc

	conn *net.UDPConn
	pool *dataplane.Pool
	agg  *stats.Aggregator
}

// Run blocks until STOP is received or Stop is set, then returns after
// tearing down the receiver pool.
func (s *Server) Run() error {
	if s.Stop == nil {
		s.Stop = &shutdown.Flag{}
	}
	logger := s.logger()

	conn, err := endpoint.Create(s.Family, s.Host, strconv.Itoa(s.Port), true)
	if err != nil {
		return err
	}
	s.conn = conn
	defer conn.Close()

	state := stateStart
	var clientAddr *net.UDPAddr
	var lastTick time.Time

	buf := make([]byte, wire.FrameSize+16)

	for state != stateDying {
		if s.Stop.IsSet() {
			logger.Info("server: shutdown requested")
			break
		}

		_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, peer, err := conn.ReadFromUDP(buf)

		switch {
		case err == nil:
			frame, ferr := wire.Unmarshal(buf[:n])
			if ferr != nil {
				// Malformed frame: drop silently.
				break
			}
			state = s.handleFrame(logger, state, frame, peer, &clientAddr, &lastTick)
		case isTimeout(err):
			// Tick: nothing received this second.
		default:
			if s.Stop.IsSet() {
				break
			}
			logger.Warn("server: control socket read error", "err", err)
		}

		if state == stateStarted && clientAddr != nil && time.Since(lastTick) >= time.Second {
			s.sendData(logger, clientAddr)
			lastTick = time.Now()
		}
	}

	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Server) handleFrame(logger *slog.Logger, state serverState, frame wire.Frame, peer *net.UDPAddr, clientAddr **net.UDPAddr, lastTick *time.Time) serverState {
	switch state {
	case stateStart:
		if frame.Cmd != wire.CmdStart {
			return state // unknown command in this state: ignored
		}
		n := int(frame.Threads)
		if n < 1 {
			n = 1
		}
		*clientAddr = peer

		pool, err := dataplane.NewPool(dataplane.RoleReceiver, n, s.Family, s.Host, s.Port, s.Polling)
		if err != nil {
			logger.Error("server: failed to spawn receiver pool", "err", err)
			return state
		}
		s.pool = pool
		s.agg = stats.NewAggregator(pool)

		ack := wire.Frame{Cmd: wire.CmdAck}.Marshal()
		if _, err := s.conn.WriteToUDP(ack[:], peer); err != nil {
			logger.Error("server: failed to send ACK", "err", err)
		}
		*lastTick = time.Now()
		logger.Info("server: started", "threads", n, "client", peer.String())
		return stateStarted

	case stateStarted:
		if frame.Cmd == wire.CmdStop {
			logger.Info("server: received STOP")
			return stateDying
		}
		return state

	default:
		return state
	}
}

func (s *Server) sendData(logger *slog.Logger, clientAddr *net.UDPAddr) {
	snap := s.agg.Snapshot()
	frame := wire.Frame{Cmd: wire.CmdData, Seq: snap.MaxLastSeq, Recv: snap.PacketsTotal}.Marshal()
	if _, err := s.conn.WriteToUDP(frame[:], clientAddr); err != nil {
		logger.Warn("server: failed to send DATA", "err", err)
		return
	}
	if s.OnData != nil {
		s.OnData(0, 0, snap.PacketsTotal, snap.MaxLastSeq)
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
