package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"

	"github.com/google/uuid"
)

// Point is a 2D position in world (screen) coordinates
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Rect is an axis-aligned rectangle with inclusive edges
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Contains reports whether (x, y) lies inside r, edges included
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Expand grows r by m on every side
func (r Rect) Expand(m float64) Rect {
	return Rect{MinX: r.MinX - m, MinY: r.MinY - m, MaxX: r.MaxX + m, MaxY: r.MaxY + m}
}

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateUUID returns a random (v4) UUID string
func GenerateUUID() string {
	return uuid.New().String()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// isFinite reports whether v is neither NaN nor infinite
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// round1 rounds to one decimal place for the wire
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// speedOf returns the magnitude of a velocity vector
func speedOf(vx, vy float64) float64 {
	return math.Sqrt(vx*vx + vy*vy)
}

// round3 keeps angles to a milliradian on the wire
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
