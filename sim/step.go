package sim

import "math"

// GameConfig bundles the fixed, immutable constants the simulation is
// tuned against. It is threaded by value (or read from the package
// global Config below) rather than made mutable at runtime: changing
// any of these mid-match would break the determinism and rollback
// equivalence properties the engine depends on.
type GameConfig struct {
	ArenaSize         Vector2
	PaddleSize        Vector2
	PaddleForce       float32
	PaddleFriction    float32
	BallRadius        float32
	BallSpeed         float32
	MaxRollbackFrames int
	Dt                float32
}

// Config is the single build-wide simulation configuration. Every
// Step call in a given build uses these constants; they are not
// swapped at runtime.
var Config = GameConfig{
	ArenaSize:         Vector2{X: 1000, Y: 800},
	PaddleSize:        Vector2{X: 25, Y: 175},
	PaddleForce:       1000,
	PaddleFriction:    300,
	BallRadius:        20,
	BallSpeed:         400,
	MaxRollbackFrames: 128,
	Dt:                1.0 / 60.0,
}

func sign(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func (p *Paddle) processMovement(input float32, dt float32) {
	p.Velocity += input * (Config.PaddleForce + Config.PaddleFriction) * dt
	frictionEffect := -sign(p.Velocity) * Config.PaddleFriction * dt
	if float32(math.Abs(float64(p.Velocity))) < float32(math.Abs(float64(frictionEffect))) {
		p.Velocity = 0
	} else {
		p.Velocity += frictionEffect
	}
	p.Position.Y += p.Velocity * dt
	if p.Position.Y <= 0 || p.Position.Y+Config.PaddleSize.Y >= Config.ArenaSize.Y {
		p.Velocity *= -1
	}
}

// ballHitX is the x coordinate the ball snaps to when it collides
// with this paddle's face.
func (p *Paddle) ballHitX() float32 {
	if p.Side == Left {
		return p.Position.X + Config.PaddleSize.X + Config.BallRadius
	}
	return p.Position.X - Config.BallRadius
}

// overlaps reports whether the ball's center lies within this
// paddle's rectangle expanded by BallRadius on every side.
func (p *Paddle) overlaps(b *Ball) bool {
	local := b.Position.Sub(p.Position)
	return local.X >= -Config.BallRadius && local.X <= Config.PaddleSize.X+Config.BallRadius &&
		local.Y >= -Config.BallRadius && local.Y <= Config.PaddleSize.Y+Config.BallRadius
}

func (b *Ball) processMovement(dt float32, left, right *Paddle) {
	for _, p := range [2]*Paddle{left, right} {
		if p.overlaps(b) {
			b.Direction.X *= -2
			b.Position.X = p.ballHitX()
			if float32(math.Abs(float64(p.Velocity))) > 0.01 {
				b.Direction.Y += sign(p.Velocity)
			}
			b.Direction = b.Direction.Normalize()
		}
	}

	if b.Position.Y <= Config.BallRadius {
		b.Direction.Y *= -1
		b.Position.Y = Config.BallRadius
	}
	if b.Position.Y >= Config.ArenaSize.Y-Config.BallRadius {
		b.Direction.Y *= -1
		b.Position.Y = Config.ArenaSize.Y - Config.BallRadius
	}

	b.Position = b.Position.Add(b.Direction.Mul(dt * (Config.BallSpeed + b.BonusSpeed)))
	b.BonusSpeed += dt * 50
}

// Step advances s by one fixed time slice given this tick's two
// inputs (index 0 = left player, 1 = right player) and returns the
// resulting state. s is never mutated; Step always returns a fresh
// value, which is what lets the rollback engine keep every historical
// WorldState independently addressable.
func Step(s WorldState, inputs [2]float32) WorldState {
	next := s
	next.LeftPaddle.processMovement(inputs[0], Config.Dt)
	next.RightPaddle.processMovement(inputs[1], Config.Dt)

	next.Ball.processMovement(Config.Dt, &next.LeftPaddle, &next.RightPaddle)

	if next.Ball.Position.X <= -Config.BallRadius {
		next.RightScore.Value++
		next.Ball.reset()
	}
	if next.Ball.Position.X >= Config.ArenaSize.X+Config.BallRadius {
		next.LeftScore.Value++
		next.Ball.reset()
	}

	return next
}
