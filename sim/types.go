// Package sim implements the deterministic Pong state-transition
// function. Step must never sample the wall clock, hash a pointer, or
// otherwise introduce any source of non-determinism: the same
// (WorldState, inputs) sequence must produce byte-identical output on
// any machine sharing the same float ABI.
package sim

import "math"

// Vector2 is a plain 2D vector. Methods return values, not pointers,
// so WorldState (and everything it contains) stays trivially
// cloneable by value.
type Vector2 struct {
	X, Y float32
}

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{v.X + o.X, v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{v.X - o.X, v.Y - o.Y} }
func (v Vector2) Mul(s float32) Vector2 { return Vector2{v.X * s, v.Y * s} }

func (v Vector2) Magnitude() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// Normalize returns v scaled to unit length, or the zero vector if v
// is itself the zero vector.
func (v Vector2) Normalize() Vector2 {
	mag := v.Magnitude()
	if mag == 0 {
		return Vector2{}
	}
	return v.Mul(1.0 / mag)
}

// Side identifies which half of the arena a paddle or score belongs
// to.
type Side int

const (
	Left Side = iota
	Right
)

// Paddle is one player's paddle.
type Paddle struct {
	Position Vector2
	Velocity float32
	Side     Side
}

// Ball is the single ball in play.
type Ball struct {
	Position    Vector2
	Direction   Vector2
	BonusSpeed  float32
}

// Score is one side's point total.
type Score struct {
	Value int32
	Side  Side
}

// WorldState is the full simulated game state for one tick. It is a
// plain value type: copying a WorldState copies the whole world,
// which is exactly what the rollback engine's history needs.
type WorldState struct {
	LeftPaddle  Paddle
	RightPaddle Paddle
	Ball        Ball
	LeftScore   Score
	RightScore  Score
}

// NewWorldState builds the initial world: paddles centered on the
// left/right walls, ball at the arena center moving left, scores at
// zero.
func NewWorldState() WorldState {
	paddleY := Config.ArenaSize.Y/2 - Config.PaddleSize.Y/2
	left := Paddle{
		Position: Vector2{X: 0, Y: paddleY},
		Side:     Left,
	}
	right := Paddle{
		Position: Vector2{X: Config.ArenaSize.X - Config.PaddleSize.X, Y: paddleY},
		Side:     Right,
	}
	return WorldState{
		LeftPaddle:  left,
		RightPaddle: right,
		Ball:        newBall(1.0),
		LeftScore:   Score{Side: Left},
		RightScore:  Score{Side: Right},
	}
}

func newBall(horizontalMultiplier float32) Ball {
	b := Ball{
		Direction: Vector2{X: horizontalMultiplier, Y: 0},
	}
	b.reset()
	return b
}

// reset recenters the ball and flips its prior horizontal direction:
// dir.x toggles sign exactly once per reset.
func (b *Ball) reset() {
	b.Position = Config.ArenaSize.Mul(0.5)
	b.Direction = Vector2{X: -b.Direction.X, Y: 0}.Normalize()
	b.BonusSpeed = 0
}
