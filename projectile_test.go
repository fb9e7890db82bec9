package main

import (
	"math"
	"testing"
)

func TestNewProjectile(t *testing.T) {
	m := testModel(FramePlatform)
	p := NewProjectile(7, TurretX, TurretY, 0, DefaultMuzzleSpeed, m, DefaultTrailLength)
	if p.ID != 7 || !p.Alive {
		t.Errorf("expected live round 7, got %+v", p)
	}
	if p.X != TurretX || p.Y != TurretY {
		t.Errorf("round should start at the muzzle, got (%f, %f)", p.X, p.Y)
	}
	if p.VX != 990 || p.VY != 0 {
		t.Errorf("expected ground velocity (990, 0), got (%f, %f)", p.VX, p.VY)
	}
	if p.Trail.Len() != 0 {
		t.Errorf("new round should have no trail, got %d", p.Trail.Len())
	}
}

func TestProjectileUpdate(t *testing.T) {
	m := testModel(FramePlatform)
	p := NewProjectile(1, TurretX, TurretY, 0, DefaultMuzzleSpeed, m, DefaultTrailLength)
	dt := 0.016
	if ev := p.Update(dt); ev != EventNone {
		t.Fatalf("expected no event, got %v", ev)
	}
	if p.Speed() >= 990 {
		t.Errorf("ground speed should drop below 990, got %f", p.Speed())
	}
	expectedX := TurretX + (p.VX-DefaultPlatformVX)*dt
	if math.Abs(p.X-expectedX) > 1e-9 {
		t.Errorf("expected X ~%f, got %f", expectedX, p.X)
	}
	pts := p.Trail.Points()
	if len(pts) != 1 || pts[0] != (Point{X: TurretX, Y: TurretY}) {
		t.Errorf("first trail point should be the muzzle, got %v", pts)
	}
}

func TestProjectileTrailEviction(t *testing.T) {
	m := testModel(FramePlatform)
	m.Bounds = Rect{MaxX: 1e6, MaxY: 1e6}
	p := NewProjectile(1, 0, 500, 0, DefaultMuzzleSpeed, m, 5)

	var xs []float64
	for i := 0; i < 8; i++ {
		xs = append(xs, p.X)
		p.Update(1.0 / 60)
	}
	pts := p.Trail.Points()
	if len(pts) != 5 || p.Trail.Cap() != 5 {
		t.Fatalf("expected 5 trail points, got %d", len(pts))
	}
	for i, pt := range pts {
		if pt.X != xs[3+i] {
			t.Errorf("trail[%d]: expected x %f, got %f", i, xs[3+i], pt.X)
		}
	}
}

func TestTrailZeroCapacity(t *testing.T) {
	tr := NewTrail(0)
	tr.Push(Point{X: 1})
	if tr.Len() != 0 || len(tr.Points()) != 0 {
		t.Error("zero capacity trail should stay empty")
	}
}

func TestProjectileExpiry(t *testing.T) {
	m := testModel(FramePlatform)
	p := NewProjectile(1, DefaultWorldWidth+ProjectileMargin-1, 300, 0, DefaultMuzzleSpeed, m, DefaultTrailLength)
	if ev := p.Update(1.0 / 60); ev != EventExpired {
		t.Fatalf("expected EventExpired, got %v", ev)
	}
	if p.IsAlive() {
		t.Error("round past the margin should be dead")
	}

	// Dead rounds are never touched again
	x, trail := p.X, p.Trail.Len()
	if ev := p.Update(1.0 / 60); ev != EventNone {
		t.Errorf("dead round should report nothing, got %v", ev)
	}
	if p.X != x || p.Trail.Len() != trail {
		t.Error("dead round should not move")
	}
}

func TestProjectileStallsInScreenFrame(t *testing.T) {
	m := testModel(FrameScreen)
	p := NewProjectile(1, 400, 300, 0, DefaultMinSpeed+0.005, m, DefaultTrailLength)
	if ev := p.Update(1.0 / 60); ev != EventExpired {
		t.Errorf("round dragged below min speed should stall, got %v", ev)
	}
}
