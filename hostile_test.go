package main

import (
	"math"
	"math/rand"
	"testing"
)

func TestHostileLinearApproach(t *testing.T) {
	h := NewHostile(1, 800, 300, 200, HostileHitWidth, HostileHitHeight)
	if h.VX != -200 {
		t.Fatalf("expected vx -200, got %f", h.VX)
	}
	prev := h.X
	for i := 1; i <= 5; i++ {
		if ev := h.Update(0.1); ev != EventNone {
			t.Fatalf("tick %d: unexpected event %v", i, ev)
		}
		if h.X >= prev {
			t.Errorf("tick %d: x should decrease, %f -> %f", i, prev, h.X)
		}
		prev = h.X
		want := 800 - 20*float64(i)
		if math.Abs(h.X-want) > 1e-9 {
			t.Errorf("tick %d: expected x %f, got %f", i, want, h.X)
		}
	}
	if math.Abs(h.X-700) > 1e-9 || !h.Alive {
		t.Errorf("expected live craft at x=700, got %f alive=%v", h.X, h.Alive)
	}
}

func TestHostileNegativeSpeedStillApproaches(t *testing.T) {
	h := NewHostile(1, 800, 300, -150, 10, 10)
	if h.VX != -150 {
		t.Errorf("expected vx -150, got %f", h.VX)
	}
}

func TestHostileBreach(t *testing.T) {
	h := NewHostile(1, 5, 300, 200, 10, 10)
	if ev := h.Update(0.1); ev != EventBreach {
		t.Fatalf("expected EventBreach, got %v", ev)
	}
	if h.IsAlive() {
		t.Error("breached craft should be dead")
	}
	if ev := h.Update(0.1); ev != EventNone {
		t.Errorf("dead craft should report nothing, got %v", ev)
	}
}

func TestHostileAtZeroIsNotBreach(t *testing.T) {
	h := NewHostile(1, 20, 300, 200, 10, 10)
	if ev := h.Update(0.1); ev != EventNone {
		t.Errorf("x == 0 is still on the field, got %v", ev)
	}
}

func TestHostileContains(t *testing.T) {
	h := NewHostile(1, 100, 200, 100, 20, 20)
	cases := []struct {
		x, y float64
		want bool
	}{
		{100, 200, true},
		{119.9, 209.9, true},
		{100, 190, true},
		{120, 200, false},
		{110, 210, false},
		{99.9, 200, false},
		{110, 189.9, false},
	}
	for _, c := range cases {
		if got := h.Contains(c.x, c.y); got != c.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
	b := h.Bounds()
	if b.MinX != 100 || b.MaxX != 120 || b.MinY != 190 || b.MaxY != 210 {
		t.Errorf("unexpected bounds %+v", b)
	}
}

func TestSpawnHostileRanges(t *testing.T) {
	ec := DefaultWorldConfig().Enemy
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		h := SpawnHostile(uint32(i), rng, 800, 600, ec, 1.5)
		if h.X != 800+ec.SpawnMargin {
			t.Fatalf("expected spawn x %f, got %f", 800+ec.SpawnMargin, h.X)
		}
		if h.Y < ec.LaneMargin || h.Y > 600-ec.LaneMargin {
			t.Fatalf("lane %f outside margins", h.Y)
		}
		speed := -h.VX
		if speed < ec.MinSpeed*1.5 || speed > ec.MaxSpeed*1.5 {
			t.Fatalf("speed %f outside scaled range", speed)
		}
	}
}

func TestSpawnHostileNarrowField(t *testing.T) {
	ec := DefaultWorldConfig().Enemy
	rng := rand.New(rand.NewSource(1))
	h := SpawnHostile(1, rng, 800, 60, ec, 1)
	if h.Y < 0 || h.Y > 60 {
		t.Errorf("lane %f outside a field narrower than the margins", h.Y)
	}
}
