package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"
)

var (
	ErrInvalidStep   = errors.New("invalid step")
	ErrInvalidAim    = errors.New("invalid aim")
	ErrInvalidConfig = errors.New("invalid config")
	ErrInvalidSpawn  = errors.New("invalid spawn")
)

// RoundState is the world's top-level state
type RoundState int

const (
	StateRunning RoundState = iota
	StateGameOver
)

func (s RoundState) String() string {
	if s == StateGameOver {
		return "game_over"
	}
	return "running"
}

// Input is what the frame driver hands the world each tick. Aim comes either
// as an angle or as a pointer target; with neither the turret keeps its aim.
type Input struct {
	Aim       float64
	HasAim    bool
	TargetX   float64
	TargetY   float64
	HasTarget bool
	Fire      bool // edge: one round per true
	Reset     bool // edge: honoured only in game over
}

// Hit records one projectile downing one hostile
type Hit struct {
	HostileID    uint32
	ProjectileID uint32
	X, Y         float64
}

// StepReport summarizes what happened during one tick
type StepReport struct {
	Tick     uint64
	State    RoundState
	Score    int
	Fired    bool
	Spawned  bool
	Expired  int
	Breached bool
	Reset    bool
	Hits     []Hit
}

// World is the simulation aggregate: turret, rounds in flight, hostiles,
// score and round state. It has exactly one mutator and no internal locking;
// callers read snapshots only between ticks.
type World struct {
	cfg   WorldConfig
	model FlightModel
	rng   *rand.Rand
	grid  *SpatialGrid

	turret      Turret
	projectiles []Projectile
	hostiles    []Hostile

	state      RoundState
	score      int
	spawnTimer float64 // seconds until the next spawn
	tick       uint64
	elapsed    float64 // simulated seconds in the current round
	nextID     uint32

	candBuf []int
	pathBuf []Point
}

// NewWorld builds a world from cfg. The config is validated and copied.
func NewWorld(cfg WorldConfig) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	frame, err := ParseFrameMode(cfg.Physics.Frame)
	if err != nil {
		return nil, err
	}
	bounds := Rect{MaxX: cfg.Field.Width, MaxY: cfg.Field.Height}
	seed := cfg.Field.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	w := &World{
		cfg: cfg,
		model: FlightModel{
			Drag:       cfg.Physics.DragParams,
			PlatformVX: cfg.Physics.PlatformVX,
			PlatformVY: cfg.Physics.PlatformVY,
			Frame:      frame,
			MinSpeed:   cfg.Physics.MinSpeed,
			Bounds:     bounds,
			Margin:     cfg.Physics.Margin,
		},
		rng:    rand.New(rand.NewSource(seed)),
		grid:   NewSpatialGrid(bounds, SpatialCellSize),
		turret: Turret{X: cfg.Field.TurretX, Y: cfg.Field.TurretY},
		state:  StateRunning,
	}
	return w, nil
}

// Config returns the world's configuration
func (w *World) Config() WorldConfig { return w.cfg }

// Model returns the flight model shared by projectiles and the predictor
func (w *World) Model() *FlightModel { return &w.model }

// State returns the round state
func (w *World) State() RoundState { return w.state }

// Score returns the current score
func (w *World) Score() int { return w.score }

// Tick returns the number of ticks simulated while running
func (w *World) Tick() uint64 { return w.tick }

// Elapsed returns simulated seconds since the round started
func (w *World) Elapsed() float64 { return w.elapsed }

// Turret returns a copy of the turret
func (w *World) Turret() Turret { return w.turret }

// ProjectileCount returns the number of rounds in flight
func (w *World) ProjectileCount() int { return len(w.projectiles) }

// HostileCount returns the number of hostiles in play
func (w *World) HostileCount() int { return len(w.hostiles) }

func (w *World) newID() uint32 {
	w.nextID++
	return w.nextID
}

// Step advances the world by dt seconds. Invalid input is rejected before
// anything is mutated. In game over the only thing a tick can do is reset.
func (w *World) Step(dt float64, in Input) (StepReport, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return StepReport{}, fmt.Errorf("%w: dt must be positive and finite, got %v", ErrInvalidStep, dt)
	}
	if in.HasTarget && (!isFinite(in.TargetX) || !isFinite(in.TargetY)) {
		return StepReport{}, fmt.Errorf("%w: target (%v, %v)", ErrInvalidAim, in.TargetX, in.TargetY)
	}
	if in.HasAim && !isFinite(in.Aim) {
		return StepReport{}, fmt.Errorf("%w: angle %v", ErrInvalidAim, in.Aim)
	}

	if w.state == StateGameOver {
		report := StepReport{Tick: w.tick}
		if in.Reset {
			w.Reset()
			report.Reset = true
		}
		report.State = w.state
		report.Score = w.score
		return report, nil
	}

	w.tick++
	w.elapsed += dt
	report := StepReport{Tick: w.tick}

	// 1. aim, then fire so a fresh round advances this tick
	if in.HasTarget {
		w.turret.AimAt(in.TargetX, in.TargetY)
	} else if in.HasAim {
		w.turret.SetAngle(in.Aim)
	}
	if in.Fire {
		w.fire(w.turret.Angle)
		report.Fired = true
	}

	// 2. spawn schedule
	w.spawnTimer -= dt
	if w.spawnTimer <= 0 {
		w.spawn()
		report.Spawned = true
	}

	// 3. rounds in flight
	advanceAll(w.projectiles, dt, func(_ int, ev MoveEvent) {
		if ev == EventExpired {
			report.Expired++
		}
	})
	w.projectiles = compact(w.projectiles)

	// 4. hostiles; a breach ends the round but the tick completes
	advanceAll(w.hostiles, dt, func(_ int, ev MoveEvent) {
		if ev == EventBreach {
			report.Breached = true
			w.state = StateGameOver
		}
	})

	// 5. collisions
	report.Hits = w.resolveCollisions()

	// 6. purge
	w.hostiles = compact(w.hostiles)
	w.projectiles = compact(w.projectiles)

	report.State = w.state
	report.Score = w.score
	return report, nil
}

// spawn adds one hostile and re-arms the countdown. Both the speed range and
// the interval escalate with score; the interval never drops below the floor.
func (w *World) spawn() {
	d := w.cfg.Difficulty
	mult := 1 + float64(w.score)*d.SpeedMultiplierGrowth
	h := SpawnHostile(w.newID(), w.rng, w.cfg.Field.Width, w.cfg.Field.Height, w.cfg.Enemy, mult)
	w.hostiles = append(w.hostiles, h)
	w.spawnTimer = math.Max(d.SpawnIntervalFloor, d.SpawnIntervalBase-float64(w.score)*d.SpawnIntervalDecay)
}

func (w *World) fire(angle float64) uint32 {
	id := w.newID()
	p := NewProjectile(id, w.turret.X, w.turret.Y, angle, w.cfg.Physics.MuzzleSpeed, &w.model, w.cfg.Field.TrailLength)
	w.projectiles = append(w.projectiles, p)
	return id
}

// resolveCollisions pairs hostiles with rounds inside their hitbox. Hostiles
// are visited in slice order and candidate rounds in ascending slice order;
// the first live round inside the hitbox takes the hostile and each hostile
// scores at most once.
func (w *World) resolveCollisions() []Hit {
	if len(w.projectiles) == 0 || len(w.hostiles) == 0 {
		return nil
	}
	w.grid.Clear()
	for i := range w.projectiles {
		if p := &w.projectiles[i]; p.Alive {
			w.grid.Insert(p.X, p.Y, i)
		}
	}

	var hits []Hit
	for i := range w.hostiles {
		h := &w.hostiles[i]
		if !h.Alive {
			continue
		}
		cand := w.grid.QueryBuf(h.Bounds(), w.candBuf[:0])
		slices.Sort(cand)
		for _, j := range cand {
			p := &w.projectiles[j]
			if !p.Alive || !h.Contains(p.X, p.Y) {
				continue
			}
			h.Alive = false
			p.Alive = false
			w.score++
			hits = append(hits, Hit{HostileID: h.ID, ProjectileID: p.ID, X: p.X, Y: p.Y})
			break
		}
		w.candBuf = cand
	}
	return hits
}

// Reset starts a new round: no entities, zero score, spawn due immediately
func (w *World) Reset() {
	clear(w.projectiles)
	clear(w.hostiles)
	w.projectiles = w.projectiles[:0]
	w.hostiles = w.hostiles[:0]
	w.score = 0
	w.spawnTimer = 0
	w.elapsed = 0
	w.state = StateRunning
}

// FireAt fires one round at angle outside the normal input path. It returns
// false in game over.
func (w *World) FireAt(angle float64) (uint32, bool) {
	if w.state != StateRunning || !isFinite(angle) {
		return 0, false
	}
	return w.fire(angle), true
}

// SpawnHostileAt places a hostile at (x, y) approaching at speed. Speed must
// be positive so the craft always closes on the defended edge.
func (w *World) SpawnHostileAt(x, y, speed float64) (uint32, error) {
	if !isFinite(x) || !isFinite(y) || !isFinite(speed) || speed <= 0 {
		return 0, fmt.Errorf("%w: hostile at (%v, %v) speed %v", ErrInvalidSpawn, x, y, speed)
	}
	id := w.newID()
	w.hostiles = append(w.hostiles, NewHostile(id, x, y, speed, w.cfg.Enemy.HitWidth, w.cfg.Enemy.HitHeight))
	return id, nil
}

// SetSpawnTimer overrides the spawn countdown
func (w *World) SetSpawnTimer(seconds float64) {
	w.spawnTimer = seconds
}

// AimPath returns the aim-assist polyline for the current turret angle
func (w *World) AimPath() []Point {
	f := w.cfg.Field
	w.pathBuf = PredictPath(w.turret.X, w.turret.Y, w.turret.Angle, w.cfg.Physics.MuzzleSpeed, &w.model, f.AimHorizon, f.AimStep, w.pathBuf)
	return slices.Clone(w.pathBuf)
}
