package main

import (
	"errors"
	"math"
	"testing"
)

const testDT = 1.0 / 60

// newTestWorld returns a seeded world with spawning pushed far into the future
func newTestWorld(t *testing.T) *World {
	t.Helper()
	cfg := DefaultWorldConfig()
	cfg.Field.Seed = 1
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	w.SetSpawnTimer(1e9)
	return w
}

func TestNewWorldRejectsBadConfig(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Physics.Mass = 0
	if _, err := NewWorld(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	cfg = DefaultWorldConfig()
	cfg.Difficulty.SpawnIntervalFloor = 0
	if _, err := NewWorld(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero spawn floor should be rejected, got %v", err)
	}
}

func TestWorldFirstSpawnOnFirstTick(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Field.Seed = 3
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r, err := w.Step(testDT, Input{})
	if err != nil {
		t.Fatal(err)
	}
	if !r.Spawned || w.HostileCount() != 1 {
		t.Errorf("expected one spawn on tick 1, got spawned=%v count=%d", r.Spawned, w.HostileCount())
	}
	if math.Abs(w.spawnTimer-DefaultSpawnIntervalBase) > 1e-9 {
		t.Errorf("expected countdown re-armed to %f, got %f", DefaultSpawnIntervalBase, w.spawnTimer)
	}
}

func TestWorldFireAdvancesSameTick(t *testing.T) {
	w := newTestWorld(t)
	r, err := w.Step(0.016, Input{Fire: true, Aim: 0, HasAim: true})
	if err != nil {
		t.Fatal(err)
	}
	if !r.Fired || w.ProjectileCount() != 1 {
		t.Fatalf("expected one round in flight, got %d", w.ProjectileCount())
	}
	p := w.Snapshot().Projectiles[0]
	if speedOf(p.VX, p.VY) >= 990 {
		t.Errorf("round should already be slowed below 990, got %f", speedOf(p.VX, p.VY))
	}
	if p.X <= TurretX {
		t.Errorf("round should have left the muzzle, x=%f", p.X)
	}
	if len(p.Trail) != 1 || p.Trail[0] != (Point{X: TurretX, Y: TurretY}) {
		t.Errorf("trail should start at the muzzle, got %v", p.Trail)
	}
}

func TestWorldAimFromTarget(t *testing.T) {
	w := newTestWorld(t)
	w.Step(testDT, Input{TargetX: TurretX, TargetY: TurretY - 100, HasTarget: true})
	if math.Abs(w.Turret().Angle+math.Pi/2) > 1e-9 {
		t.Errorf("expected aim straight up, got %f", w.Turret().Angle)
	}
	// Pointer on the pivot leaves aim alone
	w.Step(testDT, Input{TargetX: TurretX + 1, TargetY: TurretY, HasTarget: true})
	if math.Abs(w.Turret().Angle+math.Pi/2) > 1e-9 {
		t.Errorf("dead zone target should keep aim, got %f", w.Turret().Angle)
	}
	w.Step(testDT, Input{Aim: 3 * math.Pi, HasAim: true})
	if a := w.Turret().Angle; a < -math.Pi || a > math.Pi {
		t.Errorf("angle should be normalized, got %f", a)
	}
}

func TestWorldRejectsInvalidInput(t *testing.T) {
	w := newTestWorld(t)
	w.FireAt(0)
	before := w.Snapshot()

	for _, dt := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		if _, err := w.Step(dt, Input{}); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("dt=%v: expected ErrInvalidStep, got %v", dt, err)
		}
	}
	bad := []Input{
		{Aim: math.NaN(), HasAim: true},
		{Aim: math.Inf(-1), HasAim: true},
		{TargetX: math.NaN(), HasTarget: true},
		{TargetY: math.Inf(1), HasTarget: true},
	}
	for _, in := range bad {
		if _, err := w.Step(testDT, in); !errors.Is(err, ErrInvalidAim) {
			t.Errorf("%+v: expected ErrInvalidAim, got %v", in, err)
		}
	}

	after := w.Snapshot()
	if after.Tick != before.Tick || after.Projectiles[0].X != before.Projectiles[0].X {
		t.Error("rejected input must not advance the world")
	}
	// NaN aim without HasAim is ignored
	if _, err := w.Step(testDT, Input{Aim: math.NaN()}); err != nil {
		t.Errorf("unused aim should not be checked, got %v", err)
	}
}

func TestWorldHitScoresOnce(t *testing.T) {
	w := newTestWorld(t)
	// Three rounds sit inside one hitbox; only the first scores
	id := mustSpawn(t, w, 400, 300, 1)
	for i := 0; i < 3; i++ {
		w.projectiles = append(w.projectiles, Projectile{
			ID: uint32(100 + i), X: 400, Y: 300, Alive: true,
			Trail: NewTrail(1), model: &stillModel,
		})
	}

	r, err := w.Step(testDT, Input{})
	if err != nil {
		t.Fatal(err)
	}
	if w.Score() != 1 || len(r.Hits) != 1 {
		t.Fatalf("expected exactly one hit, got score=%d hits=%d", w.Score(), len(r.Hits))
	}
	if r.Hits[0].HostileID != id || r.Hits[0].ProjectileID != 100 {
		t.Errorf("first round by index should win, got %+v", r.Hits[0])
	}
	if w.HostileCount() != 0 || w.ProjectileCount() != 2 {
		t.Errorf("expected 0 hostiles and 2 rounds left, got %d and %d", w.HostileCount(), w.ProjectileCount())
	}
}

func TestWorldTwoHostilesOneRound(t *testing.T) {
	w := newTestWorld(t)
	first := mustSpawn(t, w, 400, 300, 1)
	mustSpawn(t, w, 395, 300, 1)
	w.projectiles = append(w.projectiles, Projectile{ID: 50, X: 405, Y: 300, Alive: true, Trail: NewTrail(1), model: &stillModel})

	r, _ := w.Step(testDT, Input{})
	if len(r.Hits) != 1 || r.Hits[0].HostileID != first {
		t.Fatalf("hostile order should decide the hit, got %+v", r.Hits)
	}
	if w.Score() != 1 || w.HostileCount() != 1 {
		t.Errorf("expected score 1 and one survivor, got %d and %d", w.Score(), w.HostileCount())
	}
}

func TestWorldBreachIsSticky(t *testing.T) {
	w := newTestWorld(t)
	mustSpawn(t, w, 1, 300, 200)
	r, err := w.Step(testDT, Input{})
	if err != nil {
		t.Fatal(err)
	}
	if !r.Breached || w.State() != StateGameOver || r.State != StateGameOver {
		t.Fatalf("expected game over after breach, got %v", w.State())
	}

	tick := w.Tick()
	for i := 0; i < 10; i++ {
		r, _ = w.Step(testDT, Input{Fire: true})
		if r.Fired || w.State() != StateGameOver {
			t.Fatal("game over must hold until reset")
		}
	}
	if w.Tick() != tick || w.ProjectileCount() != 0 {
		t.Error("game over ticks should not simulate")
	}
	if _, ok := w.FireAt(0); ok {
		t.Error("FireAt should refuse in game over")
	}
	if len(w.Snapshot().AimPath) != 0 {
		t.Error("no aim path in game over")
	}
}

func TestWorldBreachTickStillResolvesHits(t *testing.T) {
	w := newTestWorld(t)
	mustSpawn(t, w, 1, 300, 200)
	mustSpawn(t, w, 400, 300, 1)
	w.projectiles = append(w.projectiles, Projectile{ID: 50, X: 405, Y: 300, Alive: true, Trail: NewTrail(1), model: &stillModel})

	r, _ := w.Step(testDT, Input{})
	if !r.Breached || len(r.Hits) != 1 || w.Score() != 1 {
		t.Errorf("breach tick should still score, got breached=%v hits=%d", r.Breached, len(r.Hits))
	}
}

func TestWorldReset(t *testing.T) {
	w := newTestWorld(t)
	mustSpawn(t, w, 400, 300, 1)
	w.projectiles = append(w.projectiles, Projectile{ID: 50, X: 405, Y: 300, Alive: true, Trail: NewTrail(1), model: &stillModel})
	w.Step(testDT, Input{})
	w.FireAt(0)
	mustSpawn(t, w, 1, 300, 200)
	w.Step(testDT, Input{})
	if w.State() != StateGameOver || w.Score() != 1 {
		t.Fatalf("setup: expected game over with score 1, got %v %d", w.State(), w.Score())
	}

	tick := w.Tick()
	r, err := w.Step(testDT, Input{Reset: true, Fire: true})
	if err != nil {
		t.Fatal(err)
	}
	if !r.Reset || r.Fired || r.Spawned {
		t.Errorf("reset tick should do nothing else, got %+v", r)
	}
	if w.State() != StateRunning || w.Score() != 0 || w.Elapsed() != 0 {
		t.Errorf("expected fresh round, got %v score=%d elapsed=%f", w.State(), w.Score(), w.Elapsed())
	}
	if w.ProjectileCount() != 0 || w.HostileCount() != 0 {
		t.Error("reset should clear every entity")
	}
	if w.Tick() != tick {
		t.Error("reset tick should not count as a simulated tick")
	}

	// Next tick spawns straight away
	r, _ = w.Step(testDT, Input{})
	if !r.Spawned {
		t.Error("first tick after reset should spawn")
	}
}

func TestWorldResetIgnoredWhileRunning(t *testing.T) {
	w := newTestWorld(t)
	mustSpawn(t, w, 600, 300, 1)
	r, _ := w.Step(testDT, Input{Reset: true})
	if r.Reset || w.HostileCount() != 1 {
		t.Error("reset must only apply in game over")
	}
}

func TestWorldScoreMonotonic(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Field.Seed = 9
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatal(err)
	}
	last := 0
	for i := 0; i < 3000 && w.State() == StateRunning; i++ {
		// Sweep the aim and fire every few ticks
		in := Input{Aim: math.Sin(float64(i)/20) * 0.5, HasAim: true, Fire: i%4 == 0}
		r, err := w.Step(testDT, in)
		if err != nil {
			t.Fatal(err)
		}
		if r.Score < last {
			t.Fatalf("score dropped from %d to %d", last, r.Score)
		}
		last = r.Score
	}
}

func TestWorldSpawnEscalation(t *testing.T) {
	w := newTestWorld(t)
	w.score = 10
	w.SetSpawnTimer(0)
	w.Step(testDT, Input{})
	want := DefaultSpawnIntervalBase - 10*DefaultSpawnIntervalDecay
	if math.Abs(w.spawnTimer-want) > 1e-9 {
		t.Errorf("expected interval %f, got %f", want, w.spawnTimer)
	}
	h := w.hostiles[0]
	mult := 1 + 10*DefaultSpeedMultiplierGrowth
	if -h.VX < HostileMinSpeed*mult || -h.VX > HostileMaxSpeed*mult {
		t.Errorf("speed %f outside escalated range", -h.VX)
	}

	w.score = 1000
	w.SetSpawnTimer(0)
	w.Step(testDT, Input{})
	if math.Abs(w.spawnTimer-DefaultSpawnIntervalFloor) > 1e-9 {
		t.Errorf("interval should clamp to floor %f, got %f", DefaultSpawnIntervalFloor, w.spawnTimer)
	}
}

func TestWorldSnapshotIsCopy(t *testing.T) {
	w := newTestWorld(t)
	w.FireAt(0)
	mustSpawn(t, w, 600, 300, 100)
	w.Step(testDT, Input{})
	w.Step(testDT, Input{})

	s := w.Snapshot()
	if s.State != StateRunning || len(s.Projectiles) != 1 || len(s.Hostiles) != 1 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	s.Projectiles[0].Trail[0].X = -1
	s.AimPath[0].X = -1
	x := s.Projectiles[0].X

	w.Step(testDT, Input{})
	s2 := w.Snapshot()
	if s2.Projectiles[0].Trail[0].X == -1 || s2.AimPath[0].X == -1 {
		t.Error("snapshot must not alias world storage")
	}
	if s.Projectiles[0].X != x {
		t.Error("old snapshot must not change when the world steps")
	}
	if s2.AimPath[0] != (Point{X: TurretX, Y: TurretY}) {
		t.Errorf("aim path should start at the turret, got %v", s2.AimPath[0])
	}
}

func TestWorldAimPathMatchesFlight(t *testing.T) {
	w := newTestWorld(t)
	w.Step(testDT, Input{Aim: -0.3, HasAim: true})
	path := w.AimPath()
	w.FireAt(w.Turret().Angle)
	for i := 1; i < len(path) && w.ProjectileCount() > 0; i++ {
		w.Step(testDT, Input{})
		p := w.Snapshot().Projectiles[0]
		if math.Abs(p.X-path[i].X) > 1e-9 || math.Abs(p.Y-path[i].Y) > 1e-9 {
			t.Fatalf("step %d: round (%f, %f) left the aim line (%f, %f)", i, p.X, p.Y, path[i].X, path[i].Y)
		}
	}
}

func TestWorldRoundStateString(t *testing.T) {
	if StateRunning.String() != "running" || StateGameOver.String() != "game_over" {
		t.Error("unexpected state names")
	}
}

// stillModel keeps hand-placed rounds where they are for collision tests
var stillModel = FlightModel{
	Drag:   DragParams{Mass: 1, DragCoefficient: 1, Area: 1, AirDensity: 1},
	Bounds: Rect{MaxX: DefaultWorldWidth, MaxY: DefaultWorldHeight},
	Margin: ProjectileMargin,
}

func mustSpawn(t *testing.T, w *World, x, y, speed float64) uint32 {
	t.Helper()
	id, err := w.SpawnHostileAt(x, y, speed)
	if err != nil {
		t.Fatalf("SpawnHostileAt: %v", err)
	}
	return id
}

func TestWorldSpawnRejectsStillHostile(t *testing.T) {
	w := newTestWorld(t)
	for _, speed := range []float64{0, -50, math.NaN(), math.Inf(1)} {
		if _, err := w.SpawnHostileAt(700, 300, speed); !errors.Is(err, ErrInvalidSpawn) {
			t.Errorf("speed %v: expected ErrInvalidSpawn, got %v", speed, err)
		}
	}
	if _, err := w.SpawnHostileAt(math.NaN(), 300, 100); !errors.Is(err, ErrInvalidSpawn) {
		t.Errorf("NaN position: expected ErrInvalidSpawn, got %v", err)
	}
	if w.HostileCount() != 0 {
		t.Errorf("rejected spawns should add nothing, got %d hostiles", w.HostileCount())
	}

	mustSpawn(t, w, 700, 300, 100)
	if h := w.hostiles[0]; h.VX >= 0 {
		t.Errorf("hostile must approach with vx < 0, got %v", h.VX)
	}
}
