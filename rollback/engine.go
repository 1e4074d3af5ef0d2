package rollback

import (
	"go.uber.org/zap"

	"pongrelay/sim"
	"pongrelay/wire"
)

// Transport is the subset of transport.Transport the engine needs:
// one blocking send, one non-blocking receive attempt. Defined here
// (rather than depending on the transport package's concrete type) so
// the engine can be driven by a fake stream in tests, isolated from
// any concrete net.Conn.
type Transport interface {
	Send(wire.InputFrame) error
	TryRecvOne() (wire.InputFrame, bool, error)
}

// PaceHint is the tick-rate adjustment the engine requests based on
// how far ahead or behind the remote peer appears to be. Acting on it
// (e.g. calling a renderer's set-target-fps) is outside this engine's
// scope; Tick just reports the request.
type PaceHint int

const (
	PaceNominal PaceHint = iota
	PaceFaster
	PaceSlower
)

// Engine is the rollback/resimulate engine: a bounded history of
// (inputs, state_after) records, a future-input buffer for
// remote inputs that have arrived ahead of schedule, and the per-tick
// reconciliation loop that keeps both peers' simulations in sync.
type Engine struct {
	currentFrame uint32
	history      *History
	future       FutureInputBuffer
	localSide    sim.Side
	localIndex   int
	remoteIndex  int
	transport    Transport
	log          *zap.Logger

	framesRolledBack uint32
	oldestFrameDelay uint32
}

// NewEngine builds an engine for a fresh match. localSide determines
// which half of the wire.InputFrame pair this instance owns; the
// transport must already be connected to the peer.
func NewEngine(transport Transport, localSide sim.Side, log *zap.Logger) *Engine {
	localIndex := 0
	if localSide == sim.Right {
		localIndex = 1
	}

	initial := FrameRecord{
		Inputs:     [2]wire.InputFrame{},
		StateAfter: sim.NewWorldState(),
	}

	return &Engine{
		history:     NewHistory(sim.Config.MaxRollbackFrames, initial),
		localSide:   localSide,
		localIndex:  localIndex,
		remoteIndex: 1 - localIndex,
		transport:   transport,
		log:         log,
	}
}

// CurrentFrame returns the frame number that will be produced by the
// next Tick call.
func (e *Engine) CurrentFrame() uint32 { return e.currentFrame }

// Latest returns the most recently produced WorldState.
func (e *Engine) Latest() sim.WorldState { return e.history.At(0).StateAfter }

// FramesRolledBack returns how many frames were resimulated on the
// most recent Tick (0 if none).
func (e *Engine) FramesRolledBack() uint32 { return e.framesRolledBack }

// OldestFrameDelay returns the largest correction offset k observed
// on the most recent Tick (0 if none).
func (e *Engine) OldestFrameDelay() uint32 { return e.oldestFrameDelay }

// Tick runs one full iteration of the engine's per-tick contract:
// capture and send the local input, drain remote inputs
// non-blockingly, classify and apply each (rolling back and
// resimulating as needed), pick this tick's remote input, and advance
// the simulation by one frame.
func (e *Engine) Tick(localInput float32) PaceHint {
	local := wire.InputFrame{Frame: e.currentFrame, Input: localInput}

	if err := e.transport.Send(local); err != nil {
		e.log.Debug("failed to send local input, continuing", zap.Error(err))
	}

	remoteBatch := e.drainRemote()

	e.framesRolledBack = 0
	e.oldestFrameDelay = 0
	pace := PaceNominal

	var curFrameRemote *wire.InputFrame
	for _, r := range remoteBatch {
		switch {
		case r.Frame > e.currentFrame:
			e.future.Push(r)
			pace = PaceFaster

		case r.Frame == e.currentFrame:
			v := r
			curFrameRemote = &v
			pace = PaceNominal

		default:
			k := e.currentFrame - r.Frame
			pace = e.applyPastInput(r, k)
		}
	}

	if curFrameRemote == nil {
		if frame, ok := e.future.PeekFrame(); ok && frame == e.currentFrame {
			v := e.future.Pop()
			curFrameRemote = &v
		} else {
			v := e.history.At(0).Inputs[e.remoteIndex]
			curFrameRemote = &v
		}
	}

	var inputs [2]wire.InputFrame
	inputs[e.localIndex] = local
	inputs[e.remoteIndex] = *curFrameRemote

	base := e.history.At(0).StateAfter
	next := sim.Step(base, [2]float32{inputs[0].Input, inputs[1].Input})
	e.history.Prepend(FrameRecord{Inputs: inputs, StateAfter: next})

	e.currentFrame++

	return pace
}

// drainRemote repeatedly attempts a non-blocking receive until the
// transport would-block. Any hard error ends the drain and is logged;
// it is not fatal for this tick.
func (e *Engine) drainRemote() []wire.InputFrame {
	var batch []wire.InputFrame
	for {
		frame, ok, err := e.transport.TryRecvOne()
		if err != nil {
			e.log.Debug("remote read failed, ending drain for this tick", zap.Error(err))
			return batch
		}
		if !ok {
			return batch
		}
		batch = append(batch, frame)
	}
}

// applyPastInput classifies and applies a remote input that names a
// frame strictly older than current_frame (offset k >= 1). It returns
// the pace hint this correction requests.
func (e *Engine) applyPastInput(r wire.InputFrame, k uint32) PaceHint {
	idx := int(k) - 1
	if idx+1 >= e.history.Len() {
		// Too old to resimulate (the record, or the state it was
		// stepped from, is no longer in history): log and drop rather
		// than abort the match over one stale correction.
		e.log.Error("dropping remote input older than retained history",
			zap.Uint32("remote_frame", r.Frame),
			zap.Uint32("current_frame", e.currentFrame),
			zap.Int("history_len", e.history.Len()))
		return PaceNominal
	}

	pace := PaceNominal
	if k > 1 {
		pace = PaceSlower
	}
	e.oldestFrameDelay = max32(e.oldestFrameDelay, k)

	record := e.history.At(idx)
	if record.Inputs[e.remoteIndex] == r {
		// Duplicate / redundant: no-op, no resimulation.
		return pace
	}

	record.Inputs[e.remoteIndex] = r
	e.framesRolledBack = k

	e.resimulateFrom(idx)

	return pace
}

// resimulateFrom walks the history from idx down to the newest record
// (index 0), recomputing state_after at each step. For every index
// strictly newer than idx, the remote-side input is first reset to
// the remote-side input of the immediately-processed (one-older)
// frame: that input had been predicted by duplicating the
// now-corrected value, and that prediction is invalidated. The
// local-side input of past frames is never rewritten.
func (e *Engine) resimulateFrom(idx int) {
	for j := idx; j >= 0; j-- {
		rec := e.history.At(j)
		if j < idx {
			rec.Inputs[e.remoteIndex] = e.history.At(j + 1).Inputs[e.remoteIndex]
		}
		base := e.history.At(j + 1).StateAfter
		rec.StateAfter = sim.Step(base, [2]float32{rec.Inputs[0].Input, rec.Inputs[1].Input})
	}
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
