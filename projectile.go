package main

const (
	DefaultMuzzleSpeed = 890.0 // m/s, platform frame
	DefaultTrailLength = 20
	ProjectileMargin   = 100.0 // px beyond the field before a round is dropped
)

// Trail keeps the last N positions of a projectile, oldest evicted first
type Trail struct {
	pts   []Point
	start int
	n     int
}

// NewTrail returns an empty trail holding at most capacity points
func NewTrail(capacity int) Trail {
	if capacity < 0 {
		capacity = 0
	}
	return Trail{pts: make([]Point, capacity)}
}

// Push appends p, evicting the oldest point when full
func (t *Trail) Push(p Point) {
	c := len(t.pts)
	if c == 0 {
		return
	}
	if t.n < c {
		t.pts[(t.start+t.n)%c] = p
		t.n++
		return
	}
	t.pts[t.start] = p
	t.start = (t.start + 1) % c
}

// Len returns the number of stored points
func (t *Trail) Len() int { return t.n }

// Cap returns the maximum number of stored points
func (t *Trail) Cap() int { return len(t.pts) }

// Points returns a copy of the trail ordered oldest to newest
func (t *Trail) Points() []Point {
	out := make([]Point, t.n)
	for i := 0; i < t.n; i++ {
		out[i] = t.pts[(t.start+i)%len(t.pts)]
	}
	return out
}

// Projectile is a drag-affected round fired from the turret.
// X, Y are on-screen (platform frame); VX, VY are ground frame.
type Projectile struct {
	ID     uint32
	X, Y   float64
	VX, VY float64
	Trail  Trail
	Alive  bool
	model  *FlightModel
}

// NewProjectile creates a round at the muzzle travelling along angle
func NewProjectile(id uint32, x, y, angle, muzzleSpeed float64, model *FlightModel, trailLen int) Projectile {
	vx, vy := model.Launch(angle, muzzleSpeed)
	return Projectile{
		ID:    id,
		X:     x,
		Y:     y,
		VX:    vx,
		VY:    vy,
		Trail: NewTrail(trailLen),
		Alive: true,
		model: model,
	}
}

// Update moves the projectile one tick
func (p *Projectile) Update(dt float64) MoveEvent {
	if !p.Alive {
		return EventNone
	}
	p.Trail.Push(Point{X: p.X, Y: p.Y})
	p.X, p.Y, p.VX, p.VY = p.model.Step(p.X, p.Y, p.VX, p.VY, dt)

	if p.model.Escaped(p.X, p.Y, p.VX, p.VY) {
		p.Alive = false
		return EventExpired
	}
	return EventNone
}

// IsAlive reports whether the round is still in flight
func (p *Projectile) IsAlive() bool { return p.Alive }

// Speed returns the ground-frame speed
func (p *Projectile) Speed() float64 {
	return speedOf(p.VX, p.VY)
}
