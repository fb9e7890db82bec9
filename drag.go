package main

import (
	"fmt"
	"math"
)

// Default projectile and atmosphere parameters (SI units)
const (
	DefaultProjectileMass  = 0.045    // kg
	DefaultDragCoefficient = 0.295    // dimensionless
	DefaultCrossSection    = 0.000071 // m^2
	DefaultAirDensity      = 1.225    // kg/m^3
)

// DragParams describes the quadratic drag acting on a projectile
type DragParams struct {
	Mass            float64 `json:"mass" mapstructure:"mass"`
	DragCoefficient float64 `json:"dragCoefficient" mapstructure:"dragCoefficient"`
	Area            float64 `json:"area" mapstructure:"area"`
	AirDensity      float64 `json:"airDensity" mapstructure:"airDensity"`
}

// DefaultDragParams returns the parameters of the reference round
func DefaultDragParams() DragParams {
	return DragParams{
		Mass:            DefaultProjectileMass,
		DragCoefficient: DefaultDragCoefficient,
		Area:            DefaultCrossSection,
		AirDensity:      DefaultAirDensity,
	}
}

// Validate checks that every parameter is strictly positive and finite
func (p DragParams) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"mass", p.Mass},
		{"dragCoefficient", p.DragCoefficient},
		{"area", p.Area},
		{"airDensity", p.AirDensity},
	}
	for _, f := range fields {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: drag %s must be positive, got %v", ErrInvalidConfig, f.name, f.v)
		}
	}
	return nil
}

// Deceleration returns the drag deceleration magnitude at the given speed
func (p DragParams) Deceleration(speed float64) float64 {
	return 0.5 * p.AirDensity * speed * speed * p.DragCoefficient * p.Area / p.Mass
}

// ApplyDrag advances a ground-frame velocity by one explicit Euler step of
// quadratic drag. A zero velocity has no direction to decelerate along and
// is returned unchanged.
func ApplyDrag(vx, vy float64, p DragParams, dt float64) (float64, float64) {
	speed := math.Sqrt(vx*vx + vy*vy)
	if speed == 0 {
		return vx, vy
	}
	decel := p.Deceleration(speed)
	ax := -(vx / speed) * decel
	ay := -(vy / speed) * decel
	return vx + ax*dt, vy + ay*dt
}
