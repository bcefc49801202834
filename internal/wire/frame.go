// Package wire implements the fixed-layout 24-byte control-plane frame
// shared by the client and server state machines.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Command identifies the kind of control frame on the wire.
type Command uint32

const (
	// CmdStart is sent client->server to begin a benchmark run.
	CmdStart Command = 1
	// CmdAck is sent server->client to acknowledge a Start.
	CmdAck Command = 2
	// CmdStop is sent client->server to request graceful shutdown.
	CmdStop Command = 3
	// CmdData is sent server->client with periodic receive counters.
	CmdData Command = 4
)

// String implements fmt.Stringer for log messages.
func (c Command) String() string {
	switch c {
	case CmdStart:
		return "START"
	case CmdAck:
		return "ACK"
	case CmdStop:
		return "STOP"
	case CmdData:
		return "DATA"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(c))
	}
}

// FrameSize is the fixed wire size of a Frame in bytes.
const FrameSize = 24

// ErrShortFrame is returned when a datagram is smaller than FrameSize.
var ErrShortFrame = errors.New("wire: frame shorter than 24 bytes")

// ErrLongFrame is returned when a datagram is larger than FrameSize.
var ErrLongFrame = errors.New("wire: frame longer than 24 bytes")

// Frame is the in-memory representation of a control-plane message.
//
// Only the fields meaningful for Cmd are populated by the sender; the
// others MUST be zero on the wire (see Marshal).
type Frame struct {
	Cmd     Command
	Threads uint32
	Seq     uint64 // max last-seq, meaningful only for CmdData
	Recv    uint64 // total packets received, meaningful only for CmdData
}

// Marshal encodes f into its 24-byte wire form, zeroing any field not
// meaningful for f.Cmd.
func (f Frame) Marshal() [FrameSize]byte {
	var b [FrameSize]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(f.Cmd))

	threads := f.Threads
	seq := f.Seq
	recv := f.Recv
	if f.Cmd != CmdStart {
		threads = 0
	}
	if f.Cmd != CmdData {
		seq = 0
		recv = 0
	}

	binary.BigEndian.PutUint32(b[4:8], threads)
	binary.BigEndian.PutUint32(b[8:12], uint32(seq>>32))
	binary.BigEndian.PutUint32(b[12:16], uint32(seq))
	binary.BigEndian.PutUint32(b[16:20], uint32(recv>>32))
	binary.BigEndian.PutUint32(b[20:24], uint32(recv))
	return b
}

// Unmarshal decodes a wire frame. It returns ErrShortFrame/ErrLongFrame
// for any datagram whose length is not exactly FrameSize; callers MUST
// drop such datagrams silently rather than propagate the error.
func Unmarshal(b []byte) (Frame, error) {
	if len(b) < FrameSize {
		return Frame{}, ErrShortFrame
	}
	if len(b) > FrameSize {
		return Frame{}, ErrLongFrame
	}

	seqHi := binary.BigEndian.Uint32(b[8:12])
	seqLo := binary.BigEndian.Uint32(b[12:16])
	recvHi := binary.BigEndian.Uint32(b[16:20])
	recvLo := binary.BigEndian.Uint32(b[20:24])

	return Frame{
		Cmd:     Command(binary.BigEndian.Uint32(b[0:4])),
		Threads: binary.BigEndian.Uint32(b[4:8]),
		Seq:     uint64(seqHi)<<32 | uint64(seqLo),
		Recv:    uint64(recvHi)<<32 | uint64(recvLo),
	}, nil
}
