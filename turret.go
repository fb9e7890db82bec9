package main

import "math"

const (
	TurretX         = 50.0
	TurretY         = 300.0
	TurretAimDeadSq = 25.0 // ignore pointer targets within 5px of the pivot
)

// Turret is the stationary gun mounted on the platform
type Turret struct {
	X, Y  float64
	Angle float64 // radians, 0 = +X (direction of flight), y grows downward
}

// AimAt points the turret at (px, py). Targets right on top of the pivot do
// not give a stable angle and leave the current aim unchanged.
func (t *Turret) AimAt(px, py float64) {
	dx := px - t.X
	dy := py - t.Y
	if dx*dx+dy*dy > TurretAimDeadSq {
		t.Angle = math.Atan2(dy, dx)
	}
}

// SetAngle sets the aim directly, normalized to [-Pi, Pi]
func (t *Turret) SetAngle(a float64) {
	t.Angle = NormalizeAngle(a)
}

// NormalizeAngle wraps angle to [-PI, PI]
func NormalizeAngle(a float64) float64 {
	if a > math.Pi || a < -math.Pi {
		a = math.Remainder(a, 2*math.Pi)
	}
	return a
}
