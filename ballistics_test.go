package main

import (
	"errors"
	"math"
	"testing"
)

func TestBallisticsTable(t *testing.T) {
	table, err := BallisticsTable(DefaultDragParams(), 890, 2, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 41 {
		t.Fatalf("expected 41 rows, got %d", len(table))
	}
	if table[0].T != 0 || table[0].Speed != 890 || table[0].Distance != 0 {
		t.Errorf("first row should be the muzzle, got %+v", table[0])
	}
	for i := 1; i < len(table); i++ {
		if table[i].Speed >= table[i-1].Speed {
			t.Errorf("row %d: speed should fall", i)
		}
		if table[i].Distance <= table[i-1].Distance {
			t.Errorf("row %d: distance should grow", i)
		}
	}
	last := table[len(table)-1]
	if math.Abs(last.T-2) > 1e-9 {
		t.Errorf("expected last row at t=2, got %f", last.T)
	}
	// Euler tracks the closed form to within a few percent at this step
	if rel := math.Abs(last.Speed-last.ExactSpeed) / last.ExactSpeed; rel > 0.03 {
		t.Errorf("speed drifted %.3f from exact", rel)
	}
	if rel := math.Abs(last.Distance-last.ExactDistance) / last.ExactDistance; rel > 0.03 {
		t.Errorf("distance drifted %.3f from exact", rel)
	}
}

func TestBallisticsMatchesLiveStep(t *testing.T) {
	p := DefaultDragParams()
	table, err := BallisticsTable(p, 990, 0.1, 0.016)
	if err != nil {
		t.Fatal(err)
	}
	vx, _ := ApplyDrag(990, 0, p, 0.016)
	if table[1].Speed != vx {
		t.Errorf("table should use the simulation step, got %f want %f", table[1].Speed, vx)
	}
}

func TestBallisticsTableErrors(t *testing.T) {
	p := DefaultDragParams()
	cases := []struct {
		v0, dur, dt float64
		want        error
	}{
		{0, 1, 0.1, ErrInvalidConfig},
		{890, 0, 0.1, ErrInvalidConfig},
		{890, maxBallisticsTime + 1, 0.1, ErrInvalidConfig},
		{890, 1, 0, ErrInvalidStep},
		{890, 1, math.NaN(), ErrInvalidStep},
		{890, 30, 0.001, ErrInvalidConfig},
	}
	for _, c := range cases {
		if _, err := BallisticsTable(p, c.v0, c.dur, c.dt); !errors.Is(err, c.want) {
			t.Errorf("%+v: expected %v, got %v", c, c.want, err)
		}
	}
	if _, err := BallisticsTable(DragParams{}, 890, 1, 0.1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero drag params should be rejected, got %v", err)
	}
}
