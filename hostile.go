package main

import "math/rand"

const (
	HostileMinSpeed    = 200.0 // px/s before escalation
	HostileMaxSpeed    = 400.0
	HostileSpawnMargin = 50.0 // spawn this far past the far edge
	HostileLaneMargin  = 50.0 // keep spawn lanes off the top/bottom edge
	HostileHitWidth    = 20.0
	HostileHitHeight   = 20.0
)

// Hostile is an enemy craft flying straight at the defended (left) edge
type Hostile struct {
	ID     uint32
	X, Y   float64
	VX, VY float64
	HitW   float64
	HitH   float64
	Alive  bool
}

// NewHostile creates a craft at (x, y) approaching with the given speed
func NewHostile(id uint32, x, y, speed, hitW, hitH float64) Hostile {
	if speed < 0 {
		speed = -speed
	}
	return Hostile{
		ID:    id,
		X:     x,
		Y:     y,
		VX:    -speed,
		HitW:  hitW,
		HitH:  hitH,
		Alive: true,
	}
}

// SpawnHostile places a craft just beyond the far edge in a random lane with
// a speed drawn from the configured range scaled by mult.
func SpawnHostile(id uint32, rng *rand.Rand, width, height float64, ec EnemyConfig, mult float64) Hostile {
	lo, hi := 0.0, height
	if height > 2*ec.LaneMargin {
		lo, hi = ec.LaneMargin, height-ec.LaneMargin
	}
	y := lo + rng.Float64()*(hi-lo)
	speed := (ec.MinSpeed + rng.Float64()*(ec.MaxSpeed-ec.MinSpeed)) * mult
	return NewHostile(id, width+ec.SpawnMargin, y, speed, ec.HitWidth, ec.HitHeight)
}

// Update moves the craft. Crossing x < 0 deactivates it and reports a breach.
func (h *Hostile) Update(dt float64) MoveEvent {
	if !h.Alive {
		return EventNone
	}
	h.X += h.VX * dt
	h.Y += h.VY * dt

	if h.X < 0 {
		h.Alive = false
		return EventBreach
	}
	return EventNone
}

// IsAlive reports whether the craft is still in play
func (h *Hostile) IsAlive() bool { return h.Alive }

// Contains reports whether a point lies in the hitbox: the rectangle
// [X, X+HitW) x [Y-HitH/2, Y+HitH/2), nose at X with the body trailing right.
func (h *Hostile) Contains(px, py float64) bool {
	top := h.Y - h.HitH/2
	return px >= h.X && px < h.X+h.HitW && py >= top && py < top+h.HitH
}

// Bounds returns the hitbox as a rectangle
func (h *Hostile) Bounds() Rect {
	return Rect{MinX: h.X, MinY: h.Y - h.HitH/2, MaxX: h.X + h.HitW, MaxY: h.Y + h.HitH/2}
}
