package rollback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pongrelay/sim"
	"pongrelay/wire"
)

// fakeTransport is a queue-backed stand-in for transport.Transport: Send
// appends to a local log (for assertions), and queued frames are
// delivered to TryRecvOne in order, one per call, until the queue is
// drained.
type fakeTransport struct {
	sent  []wire.InputFrame
	queue []wire.InputFrame
}

func (f *fakeTransport) Send(frame wire.InputFrame) error {
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeTransport) TryRecvOne() (wire.InputFrame, bool, error) {
	if len(f.queue) == 0 {
		return wire.InputFrame{}, false, nil
	}
	v := f.queue[0]
	f.queue = f.queue[1:]
	return v, true, nil
}

func (f *fakeTransport) enqueue(frames ...wire.InputFrame) {
	f.queue = append(f.queue, frames...)
}

func newTestEngine() (*Engine, *fakeTransport) {
	tr := &fakeTransport{}
	e := NewEngine(tr, sim.Left, zap.NewNop())
	return e, tr
}

func TestHistoryGrowsThenCaps(t *testing.T) {
	e, _ := newTestEngine()
	limit := sim.Config.MaxRollbackFrames

	for i := 0; i < limit+50; i++ {
		e.Tick(0)
		if i+1 < limit {
			assert.Equal(t, i+2, e.history.Len())
		} else {
			assert.Equal(t, limit, e.history.Len())
		}
	}
}

func TestOnTimeRemoteInputAppliedSameTick(t *testing.T) {
	e, tr := newTestEngine()

	tr.enqueue(wire.InputFrame{Frame: 0, Input: 1.0})
	pace := e.Tick(0)

	assert.Equal(t, PaceNominal, pace)
	assert.Equal(t, uint32(0), e.FramesRolledBack())
	rec := e.history.At(0)
	assert.Equal(t, float32(1.0), rec.Inputs[e.remoteIndex].Input)
	assert.Equal(t, float32(0), rec.Inputs[e.localIndex].Input)
}

func TestFutureInputIsBufferedThenConsumed(t *testing.T) {
	e, tr := newTestEngine()

	tr.enqueue(wire.InputFrame{Frame: 2, Input: 1.0})
	pace := e.Tick(0)
	assert.Equal(t, PaceFaster, pace)
	assert.Equal(t, 1, e.future.Len())

	e.Tick(0)
	assert.Equal(t, 1, e.future.Len(), "frame 2 input should still be buffered at current_frame=1")

	e.Tick(0)
	assert.Equal(t, 0, e.future.Len(), "frame 2 input should be consumed once current_frame reaches 2")
	rec := e.history.At(0)
	assert.Equal(t, float32(1.0), rec.Inputs[e.remoteIndex].Input)
}

func TestLateInputTriggersResimulation(t *testing.T) {
	e, tr := newTestEngine()

	// Advance a few frames predicting the remote side as 0 (no remote
	// input has arrived yet).
	for i := 0; i < 3; i++ {
		e.Tick(0)
	}
	require.Equal(t, uint32(3), e.CurrentFrame())

	preCorrection := *e.history.At(2) // frame 0's record, still predicted

	// Now the remote input for frame 0 arrives late, with a nonzero
	// value: current_frame is 3, so k = 3 - 0 = 3.
	tr.enqueue(wire.InputFrame{Frame: 0, Input: 1.0})
	pace := e.Tick(0)

	assert.Equal(t, PaceSlower, pace)
	assert.Equal(t, uint32(3), e.FramesRolledBack())
	assert.Equal(t, uint32(3), e.OldestFrameDelay())

	corrected := e.history.At(3) // frame 0's record, now corrected
	assert.Equal(t, float32(1.0), corrected.Inputs[e.remoteIndex].Input)
	assert.NotEqual(t, preCorrection.StateAfter, corrected.StateAfter,
		"resimulated state for frame 0 should differ once its remote input changed")

	// The chain from frame 0 forward should have been recomputed against
	// the corrected input, not merely have its Inputs field rewritten.
	expected := sim.Step(e.history.At(4).StateAfter, [2]float32{
		corrected.Inputs[0].Input, corrected.Inputs[1].Input,
	})
	assert.Equal(t, expected, corrected.StateAfter)
}

func TestDuplicateLateInputIsNoOp(t *testing.T) {
	e, tr := newTestEngine()

	for i := 0; i < 3; i++ {
		e.Tick(0)
	}

	tr.enqueue(wire.InputFrame{Frame: 0, Input: 0})
	pace := e.Tick(0)

	// Remote input for frame 0 was already 0 (the predicted duplicate),
	// so re-applying the same value is a no-op: no rollback recorded.
	assert.Equal(t, uint32(0), e.FramesRolledBack())
	assert.Equal(t, PaceSlower, pace, "pace hint still reflects the offset even though no resimulation ran")
}

func TestRollbackOverflowIsDroppedNotFatal(t *testing.T) {
	e, tr := newTestEngine()

	limit := sim.Config.MaxRollbackFrames
	for i := 0; i < limit+5; i++ {
		e.Tick(0)
	}

	// Frame 0 is long gone from history by now; this must be dropped,
	// not panic or corrupt state.
	tr.enqueue(wire.InputFrame{Frame: 0, Input: 1.0})
	assert.NotPanics(t, func() {
		pace := e.Tick(0)
		assert.Equal(t, PaceNominal, pace)
	})
}

func TestLocalInputSentEveryTick(t *testing.T) {
	e, tr := newTestEngine()

	for i := 0; i < 5; i++ {
		e.Tick(float32(i) * 0.1)
	}

	require.Len(t, tr.sent, 5)
	for i, f := range tr.sent {
		assert.Equal(t, uint32(i), f.Frame)
	}
}
