package main

import "math"

const (
	AimHorizon = 1.5 // seconds of look-ahead for the aim-assist line
)

// PredictPath forward-simulates a round fired from (x, y) along angle and
// returns the polyline it would trace, appending to buf[:0]. It applies
// model.Step exactly as a live Projectile does, so with step equal to the
// tick dt the points coincide with the projectile's realized positions.
//
// The first point is the muzzle. At most floor(horizon/step) steps are taken;
// the path stops right after the first point that leaves the field.
func PredictPath(x, y, angle, muzzleSpeed float64, model *FlightModel, horizon, step float64, buf []Point) []Point {
	out := append(buf[:0], Point{X: x, Y: y})
	if !(step > 0) || !(horizon > 0) || !isFinite(angle) {
		return out
	}

	steps := int(math.Floor(horizon/step + 1e-9))
	vx, vy := model.Launch(angle, muzzleSpeed)
	for i := 0; i < steps; i++ {
		x, y, vx, vy = model.Step(x, y, vx, vy, step)
		out = append(out, Point{X: x, Y: y})
		if !model.Bounds.Contains(x, y) {
			break
		}
	}
	return out
}
