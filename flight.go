package main

import (
	"fmt"
	"math"
	"strings"
)

// FrameMode selects which reference frame projectile velocity is integrated in
type FrameMode int

const (
	// FramePlatform integrates drag on ground-frame velocity and moves the
	// on-screen position by the velocity relative to the moving platform.
	FramePlatform FrameMode = iota
	// FrameScreen integrates screen velocity directly with no platform term.
	// Rounds that slow below MinSpeed are spent.
	FrameScreen
)

func (m FrameMode) String() string {
	if m == FrameScreen {
		return "screen"
	}
	return "platform"
}

// ParseFrameMode accepts "platform" or "screen"
func ParseFrameMode(s string) (FrameMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "platform":
		return FramePlatform, nil
	case "screen":
		return FrameScreen, nil
	}
	return FramePlatform, fmt.Errorf("%w: unknown frame mode %q", ErrInvalidConfig, s)
}

// FlightModel is the single update rule shared by live projectiles and the
// aim predictor. It is immutable once the world is built.
type FlightModel struct {
	Drag       DragParams
	PlatformVX float64 // platform velocity, ground frame
	PlatformVY float64
	Frame      FrameMode
	MinSpeed   float64 // FrameScreen only
	Bounds     Rect
	Margin     float64 // projectiles survive this far outside Bounds
}

// Launch returns the ground-frame velocity of a round fired at angle with the
// given muzzle speed (muzzle velocity is expressed in the platform frame).
func (m *FlightModel) Launch(angle, muzzleSpeed float64) (vx, vy float64) {
	vx = muzzleSpeed * math.Cos(angle)
	vy = muzzleSpeed * math.Sin(angle)
	if m.Frame == FramePlatform {
		vx += m.PlatformVX
		vy += m.PlatformVY
	}
	return vx, vy
}

// Step advances one projectile state by dt: drag on the integrated velocity,
// then position by the platform-relative velocity.
func (m *FlightModel) Step(x, y, vx, vy, dt float64) (float64, float64, float64, float64) {
	vx, vy = ApplyDrag(vx, vy, m.Drag, dt)
	rvx, rvy := vx, vy
	if m.Frame == FramePlatform {
		rvx -= m.PlatformVX
		rvy -= m.PlatformVY
	}
	return x + rvx*dt, y + rvy*dt, vx, vy
}

// Escaped reports whether a projectile at this state is done: outside the
// bounds plus margin, or stalled in FrameScreen mode.
func (m *FlightModel) Escaped(x, y, vx, vy float64) bool {
	if !m.Bounds.Expand(m.Margin).Contains(x, y) {
		return true
	}
	if m.Frame == FrameScreen && speedOf(vx, vy) < m.MinSpeed {
		return true
	}
	return false
}

// RelativeVelocity converts a ground-frame velocity to the displayed frame
func (m *FlightModel) RelativeVelocity(vx, vy float64) (float64, float64) {
	if m.Frame == FramePlatform {
		return vx - m.PlatformVX, vy - m.PlatformVY
	}
	return vx, vy
}
