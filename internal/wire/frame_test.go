package wire_test

import (
	"testing"

	"github.com/jroosing/pbench/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame wire.Frame
	}{
		{"start", wire.Frame{Cmd: wire.CmdStart, Threads: 4}},
		{"ack", wire.Frame{Cmd: wire.CmdAck}},
		{"stop", wire.Frame{Cmd: wire.CmdStop}},
		{"data", wire.Frame{Cmd: wire.CmdData, Seq: 0x1122334455, Recv: 0x0000000100000002}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.frame.Marshal()
			assert.Len(t, b, wire.FrameSize)

			got, err := wire.Unmarshal(b[:])
			require.NoError(t, err)

			want := tt.frame
			// Fields not meaningful for Cmd are zeroed by Marshal.
			if want.Cmd != wire.CmdStart {
				want.Threads = 0
			}
			if want.Cmd != wire.CmdData {
				want.Seq, want.Recv = 0, 0
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestFrameEndianness(t *testing.T) {
	f := wire.Frame{Cmd: wire.CmdData, Recv: 0x0000000100000002}
	b := f.Marshal()

	// recv_hi occupies bytes [16:20], recv_lo occupies bytes [20:24],
	// both big-endian (network byte order).
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x01}, b[16:20])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x02}, b[20:24])
}

func TestUnmarshalRejectsWrongSize(t *testing.T) {
	_, err := wire.Unmarshal(make([]byte, 10))
	assert.ErrorIs(t, err, wire.ErrShortFrame)

	_, err = wire.Unmarshal(make([]byte, 30))
	assert.ErrorIs(t, err, wire.ErrLongFrame)

	_, err = wire.Unmarshal(make([]byte, wire.FrameSize))
	assert.NoError(t, err)
}

func TestMarshalZeroesIrrelevantFields(t *testing.T) {
	f := wire.Frame{Cmd: wire.CmdAck, Threads: 99, Seq: 1, Recv: 2}
	b := f.Marshal()
	got, err := wire.Unmarshal(b[:])
	require.NoError(t, err)
	assert.Equal(t, wire.Frame{Cmd: wire.CmdAck}, got)
}
