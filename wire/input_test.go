package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputFrameRoundTrip(t *testing.T) {
	cases := []InputFrame{
		{Frame: 0, Input: 0},
		{Frame: 1, Input: 1},
		{Frame: 4294967295, Input: -1},
		{Frame: 123456, Input: 0.33333334},
		{Frame: 7, Input: float32(math.Pi)},
	}

	for _, c := range cases {
		buf := c.Encode()
		assert.Len(t, buf, InputFrameSize)
		got := DecodeInputFrame(buf)
		assert.Equal(t, c, got)
	}
}

func TestLobbyCommandRoundTrip(t *testing.T) {
	createBuf := EncodeCreateCommand()
	cmd := DecodeCommand(createBuf)
	assert.Equal(t, OpCreateLobby, cmd.Op)

	joinBuf := EncodeJoinCommand(-559038737) // 0xDEADBEEF as signed i32
	cmd = DecodeCommand(joinBuf)
	assert.Equal(t, OpJoinLobby, cmd.Op)
	assert.Equal(t, int32(-559038737), cmd.Code)
}
