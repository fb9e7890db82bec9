package main

import (
	"fmt"
	"math"
)

const (
	maxBallisticsSamples = 2000
	maxBallisticsTime    = 30.0 // seconds
)

// BallisticSample is one row of a straight-line flight table. Speed and
// Distance come from the same Euler step the simulation uses; the Exact
// columns are the closed-form solution of dv/dt = -k v^2 for comparison.
type BallisticSample struct {
	T             float64 `json:"t"`
	Speed         float64 `json:"speed"`
	Distance      float64 `json:"distance"`
	ExactSpeed    float64 `json:"exactSpeed"`
	ExactDistance float64 `json:"exactDistance"`
}

// BallisticsTable integrates a round fired at muzzleSpeed with no gravity
// or platform motion for duration seconds in steps of dt. The first row is
// t = 0.
func BallisticsTable(p DragParams, muzzleSpeed, duration, dt float64) ([]BallisticSample, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !positive(muzzleSpeed) {
		return nil, fmt.Errorf("%w: muzzle speed must be positive", ErrInvalidConfig)
	}
	if !positive(duration) || duration > maxBallisticsTime {
		return nil, fmt.Errorf("%w: duration must be in (0, %v]", ErrInvalidConfig, maxBallisticsTime)
	}
	if !positive(dt) {
		return nil, fmt.Errorf("%w: dt=%v", ErrInvalidStep, dt)
	}
	steps := int(math.Floor(duration/dt + 1e-9))
	if steps+1 > maxBallisticsSamples {
		return nil, fmt.Errorf("%w: %d samples exceeds %d", ErrInvalidConfig, steps+1, maxBallisticsSamples)
	}

	k := p.Deceleration(1) // a = k v^2
	out := make([]BallisticSample, 0, steps+1)
	out = append(out, BallisticSample{Speed: muzzleSpeed, ExactSpeed: muzzleSpeed})

	v, d := muzzleSpeed, 0.0
	for i := 1; i <= steps; i++ {
		v, _ = ApplyDrag(v, 0, p, dt)
		d += v * dt
		t := float64(i) * dt
		out = append(out, BallisticSample{
			T:             t,
			Speed:         v,
			Distance:      d,
			ExactSpeed:    muzzleSpeed / (1 + k*muzzleSpeed*t),
			ExactDistance: math.Log1p(k*muzzleSpeed*t) / k,
		})
	}
	return out, nil
}
