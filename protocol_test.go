package main

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestNewGameStateRounds(t *testing.T) {
	s := Snapshot{
		State:  StateGameOver,
		Score:  3,
		Tick:   99,
		Turret: Turret{X: 50, Y: 300, Angle: 0.123456},
		Projectiles: []ProjectileView{
			{ID: 1, X: 10.06, Y: 20.04, Trail: []Point{{X: 1.26, Y: 2.22}}},
		},
		Hostiles: []HostileView{
			{ID: 2, X: 700.56, Y: 100, HitBox: Rect{MinX: 700, MinY: 90, MaxX: 720, MaxY: 110}},
		},
	}
	gs := NewGameState(s)
	if gs.T != MsgState || gs.State != "game_over" || gs.Score != 3 || gs.Tick != 99 {
		t.Errorf("unexpected header %+v", gs)
	}
	if gs.Angle != 0.123 {
		t.Errorf("expected angle 0.123, got %v", gs.Angle)
	}
	p := gs.Projectiles[0]
	if p.X != 10.1 || p.Y != 20 || p.Trail[0] != (Point{X: 1.3, Y: 2.2}) {
		t.Errorf("unexpected projectile %+v", p)
	}
	h := gs.Hostiles[0]
	if h.W != 20 || h.H != 20 {
		t.Errorf("expected 20x20 hitbox, got %vx%v", h.W, h.H)
	}
	if len(gs.AimPath) != 0 {
		t.Error("no aim path in game over")
	}

	data, err := msgpack.Marshal(gs)
	if err != nil {
		t.Fatal(err)
	}
	var back GameState
	if err := msgpack.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Hostiles[0].X != 700.6 || back.Projectiles[0].ID != 1 {
		t.Errorf("state did not survive the wire: %+v", back)
	}
}
