// Package dataplane implements the per-thread UDP send/receive loops and
// the pool that owns their sockets and lifecycle.
package dataplane

import (
	"encoding/binary"
	"net"
	"sync/atomic"
	"time"
)

// Role selects whether a worker sends or receives sequence numbers.
type Role int

const (
	RoleSender Role = iota
	RoleReceiver
)

const (
	// packetSize is the fixed data-plane payload size; sender and
	// receiver agree only on this length, the encoding is otherwise
	// opaque to the protocol.
	packetSize = 8

	// burstSize bounds the inner non-blocking I/O loop between
	// readiness waits.
	burstSize = 16384

	// tickTimeout is the readiness-wait granularity in non-polling mode.
	tickTimeout = 1 * time.Second
)

// WorkerState holds one worker's counters. All fields are safe for
// concurrent reads from the aggregator; only the owning worker writes
// them.
type WorkerState struct {
	ThreadNum int

	packets atomic.Uint64
	lastSeq atomic.Uint64
}

// Packets returns the monotone count of successful sends (client) or
// receives (server).
func (w *WorkerState) Packets() uint64 { return w.packets.Load() }

// LastSeq returns the most recently handled sequence value.
func (w *WorkerState) LastSeq() uint64 { return w.lastSeq.Load() }

// worker runs the send or receive loop for one flow until stopped
// reports true.
type worker struct {
	role    Role
	conn    *net.UDPConn
	state   *WorkerState
	threads int
	polling bool
	stopped func() bool
}

func (w *worker) run() {
	var iter uint64
	buf := make([]byte, packetSize)

	for !w.stopped() {
		if !w.polling {
			var err error
			if w.role == RoleSender {
				err = w.conn.SetWriteDeadline(time.Now().Add(tickTimeout))
			} else {
				err = w.conn.SetReadDeadline(time.Now().Add(tickTimeout))
			}
			if err != nil {
				return
			}
		}

		ran := w.burst(buf, &iter)
		if !ran && !w.polling {
			// Deadline expired without a single successful attempt;
			// loop back around to re-check stopped and re-arm.
			continue
		}
	}
}

// burst runs up to burstSize non-blocking attempts, returning whether at
// least one attempt completed before the burst broke.
//
// seq is recomputed from iter*threads+threadNum before every attempt, and
// iter advances by one on every successful send/receive, so each packet
// in a burst carries a fresh, distinct sequence number.
func (w *worker) burst(buf []byte, iter *uint64) bool {
	any := false
	for i := 0; i < burstSize; i++ {
		seq := *iter*uint64(w.threads) + uint64(w.state.ThreadNum)
		if w.role == RoleSender {
			binary.LittleEndian.PutUint64(buf, seq)

			n, err := w.conn.Write(buf)
			if err != nil || n != packetSize {
				break
			}
			w.state.lastSeq.Store(seq)
			w.state.packets.Add(1)
			*iter++
			any = true
		} else {
			n, err := w.conn.Read(buf)
			if err != nil || n != packetSize {
				break
			}
			w.state.lastSeq.Store(binary.LittleEndian.Uint64(buf))
			w.state.packets.Add(1)
			*iter++
			any = true
		}
	}
	return any
}
