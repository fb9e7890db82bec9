package main

// MoveEvent is what an entity reports after advancing one tick
type MoveEvent int

const (
	EventNone    MoveEvent = iota
	EventExpired           // projectile left the field or stalled
	EventBreach            // hostile crossed the defended edge
)

// Mover is implemented by every entity the world advances each tick
type Mover interface {
	Update(dt float64) MoveEvent
	IsAlive() bool
}

var (
	_ Mover = (*Projectile)(nil)
	_ Mover = (*Hostile)(nil)
)

// advanceAll updates every live entity in order and hands non-empty events
// to onEvent along with the entity index.
func advanceAll[T any, P interface {
	*T
	Mover
}](items []T, dt float64, onEvent func(i int, ev MoveEvent)) {
	for i := range items {
		m := P(&items[i])
		if !m.IsAlive() {
			continue
		}
		if ev := m.Update(dt); ev != EventNone && onEvent != nil {
			onEvent(i, ev)
		}
	}
}

// compact drops dead entities in place, keeping the survivors' order.
// The backing array is reused so steady-state ticks do not allocate.
func compact[T any, P interface {
	*T
	Mover
}](items []T) []T {
	n := 0
	for i := range items {
		if P(&items[i]).IsAlive() {
			if n != i {
				items[n] = items[i]
			}
			n++
		}
	}
	var zero T
	for i := n; i < len(items); i++ {
		items[i] = zero
	}
	return items[:n]
}
