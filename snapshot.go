package main

// ProjectileView is a read-only copy of one round in flight
type ProjectileView struct {
	ID     uint32
	X, Y   float64
	VX, VY float64 // ground frame
	Trail  []Point // oldest first
}

// HostileView is a read-only copy of one hostile
type HostileView struct {
	ID     uint32
	X, Y   float64
	VX     float64
	HitBox Rect
}

// Snapshot is a deep copy of the world between ticks. Nothing in it aliases
// world storage, so it can be handed to another goroutine.
type Snapshot struct {
	State       RoundState
	Score       int
	Tick        uint64
	Elapsed     float64
	Width       float64
	Height      float64
	Turret      Turret
	Projectiles []ProjectileView
	Hostiles    []HostileView
	AimPath     []Point // empty in game over
}

// Snapshot copies the current world state
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		State:       w.state,
		Score:       w.score,
		Tick:        w.tick,
		Elapsed:     w.elapsed,
		Width:       w.cfg.Field.Width,
		Height:      w.cfg.Field.Height,
		Turret:      w.turret,
		Projectiles: make([]ProjectileView, 0, len(w.projectiles)),
		Hostiles:    make([]HostileView, 0, len(w.hostiles)),
	}
	for i := range w.projectiles {
		p := &w.projectiles[i]
		if !p.Alive {
			continue
		}
		s.Projectiles = append(s.Projectiles, ProjectileView{
			ID: p.ID, X: p.X, Y: p.Y, VX: p.VX, VY: p.VY,
			Trail: p.Trail.Points(),
		})
	}
	for i := range w.hostiles {
		h := &w.hostiles[i]
		if !h.Alive {
			continue
		}
		s.Hostiles = append(s.Hostiles, HostileView{ID: h.ID, X: h.X, Y: h.Y, VX: h.VX, HitBox: h.Bounds()})
	}
	if w.state == StateRunning {
		s.AimPath = w.AimPath()
	}
	return s
}
