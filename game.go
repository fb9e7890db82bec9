package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // physics ticks per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const maxSpectatorsPerSession = 32

// Broadcaster is anything that can receive messages from a game
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// pendingInput latches gunner input between ticks. Pointer and aim are
// levels (last write wins); fire and reset are edges held until consumed.
type pendingInput struct {
	hasTarget bool
	tx, ty    float64
	hasAim    bool
	aim       float64
	fire      bool
	reset     bool
}

// Game drives one World in real time for one session: a single gunner
// controls the turret and any number of spectators watch.
type Game struct {
	mu     sync.Mutex
	sid    string
	world  *World
	rules  GameplayConfig
	log    zerolog.Logger
	frames uint64

	gunnerID    string
	gunnerName  string
	gunnerPilot int64
	gunner      Broadcaster
	spectators  map[string]Broadcaster

	// Round owner: the last gunner to man the turret this round. Kept when
	// the gunner leaves so a finished round is credited to whoever scored it.
	ownerName  string
	ownerPilot int64

	input  pendingInput
	fireCD float64
	shots  int
	best   int

	onRoundOver func(RoundRow)
	analytics   *Analytics

	stopOnce sync.Once
	stop     chan struct{}
}

// roundEndEvent is the analytics payload for EvtRoundEnd
type roundEndEvent struct {
	Score    int     `json:"score"`
	Duration float64 `json:"duration"`
	Shots    int     `json:"shots"`
}

// NewGame creates a game for session sid
func NewGame(sid string, wc WorldConfig, rules GameplayConfig) (*Game, error) {
	w, err := NewWorld(wc)
	if err != nil {
		return nil, err
	}
	return &Game{
		sid:        sid,
		world:      w,
		rules:      rules,
		log:        sessionLogger(sid),
		spectators: make(map[string]Broadcaster),
		stop:       make(chan struct{}),
	}, nil
}

// Run starts the game loop
func (g *Game) Run() {
	select {
	case <-g.stop:
		return
	default:
	}

	g.analytics.Track(EvtRoundStart, 0, g.sid, "")

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop. It may be called before Run and more than once.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// SetGunner hands the turret to a client. It fails if someone else holds it.
func (g *Game) SetGunner(id, name string, pilotID int64, b Broadcaster) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gunnerID != "" && g.gunnerID != id {
		return false
	}
	g.gunnerID = id
	g.gunnerName = name
	g.gunnerPilot = pilotID
	g.gunner = b
	g.ownerName = name
	g.ownerPilot = pilotID
	g.input = pendingInput{}
	return true
}

// AddSpectator registers a watcher. It fails when the session is full.
func (g *Game) AddSpectator(id string, b Broadcaster) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.spectators) >= maxSpectatorsPerSession {
		return false
	}
	g.spectators[id] = b
	return true
}

// RemoveClient drops a gunner or spectator
func (g *Game) RemoveClient(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id == g.gunnerID {
		g.gunnerID = ""
		g.gunnerName = ""
		g.gunnerPilot = 0
		g.gunner = nil
		g.input = pendingInput{}
		return
	}
	delete(g.spectators, id)
}

// ClientCount returns gunner plus spectators
func (g *Game) ClientCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.spectators)
	if g.gunnerID != "" {
		n++
	}
	return n
}

// HasGunner reports whether the turret is manned
func (g *Game) HasGunner() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gunnerID != ""
}

// Score returns the current round's score
func (g *Game) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.world.Score()
}

// Snapshot copies the world between ticks
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.world.Snapshot()
}

// HandleInput latches gunner input for the next tick. Input from anyone but
// the gunner is ignored; non-finite numbers are rejected.
func (g *Game) HandleInput(clientID string, in ClientInput) error {
	if !isFinite(in.MX) || !isFinite(in.MY) || (in.Aim != nil && !isFinite(*in.Aim)) {
		return fmt.Errorf("%w: non-finite input", ErrInvalidAim)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if clientID != g.gunnerID {
		return nil
	}
	if in.Aim != nil {
		g.input.hasAim = true
		g.input.aim = *in.Aim
		g.input.hasTarget = false
	} else {
		g.input.hasTarget = true
		g.input.tx, g.input.ty = in.MX, in.MY
		g.input.hasAim = false
	}
	g.input.fire = g.input.fire || in.Fire
	g.input.reset = g.input.reset || in.Reset
	return nil
}

// consumeInput turns latched input into one tick's Input and clears edges
func (g *Game) consumeInput() Input {
	in := Input{
		HasTarget: g.input.hasTarget,
		TargetX:   g.input.tx,
		TargetY:   g.input.ty,
		HasAim:    g.input.hasAim,
		Aim:       g.input.aim,
		Fire:      g.input.fire,
		Reset:     g.input.reset,
	}
	g.input.fire = false
	g.input.reset = false
	return in
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.step(1.0 / float64(TickRate))
}

// step advances the world once and reacts to what happened. Caller holds mu.
func (g *Game) step(dt float64) StepReport {
	g.frames++
	in := g.consumeInput()

	// Fire rate and projectile cap are session policy, not physics
	if g.fireCD > 0 {
		g.fireCD -= dt
	}
	if in.Fire {
		capped := g.rules.MaxProjectiles > 0 && g.world.ProjectileCount() >= g.rules.MaxProjectiles
		if g.fireCD > 0 || capped {
			in.Fire = false
		} else {
			g.fireCD = g.rules.FireCooldown
		}
	}

	prev := g.world.State()
	rep, err := g.world.Step(dt, in)
	if err != nil {
		g.log.Warn().Err(err).Msg("tick rejected")
		return rep
	}

	if rep.Fired {
		g.shots++
		g.analytics.Track(EvtShot, g.gunnerPilot, g.sid, "")
	}
	for range rep.Hits {
		g.analytics.Track(EvtKill, g.gunnerPilot, g.sid, "")
	}
	if rep.Reset {
		g.shots = 0
		g.fireCD = 0
		g.ownerName = g.gunnerName
		g.ownerPilot = g.gunnerPilot
		g.log.Debug().Msg("round reset")
		g.analytics.Track(EvtRoundStart, g.ownerPilot, g.sid, "")
	}
	if prev == StateRunning && rep.State == StateGameOver {
		g.roundOver()
	}

	if g.frames%BroadcastEvery == 0 || rep.Reset {
		g.broadcastState()
	}
	return rep
}

// roundOver announces the final score and hands the round off for recording.
// Rounds nobody manned are announced but not recorded.
func (g *Game) roundOver() {
	score := g.world.Score()
	if score > g.best {
		g.best = score
	}
	row := RoundRow{
		PilotID:   g.ownerPilot,
		Name:      g.ownerName,
		SessionID: g.sid,
		Score:     score,
		Duration:  g.world.Elapsed(),
		Shots:     g.shots,
	}

	g.log.Info().Str("owner", row.Name).Int("score", score).Float64("duration", row.Duration).Int("shots", row.Shots).Msg("round over")
	g.analytics.Track(EvtBreach, row.PilotID, g.sid, "")
	payload, err := json.Marshal(roundEndEvent{Score: score, Duration: round3(row.Duration), Shots: row.Shots})
	if err != nil {
		g.log.Error().Err(err).Msg("marshal round end")
	}
	g.analytics.Track(EvtRoundEnd, row.PilotID, g.sid, string(payload))

	g.broadcastMsg(Envelope{T: MsgOver, Data: OverMsg{Score: score, Duration: round1(row.Duration), Best: g.best}})
	if row.Name == "" {
		g.log.Debug().Msg("unmanned round not recorded")
		return
	}
	if g.onRoundOver != nil {
		go g.onRoundOver(row)
	}
}

// broadcastState sends the current state to every client as msgpack
func (g *Game) broadcastState() {
	data, err := msgpack.Marshal(NewGameState(g.world.Snapshot()))
	if err != nil {
		g.log.Error().Err(err).Msg("marshal state")
		return
	}
	if g.gunner != nil {
		g.gunner.SendBinary(data)
	}
	for _, c := range g.spectators {
		c.SendBinary(data)
	}
}

// broadcastMsg sends a JSON message to every client in the session
func (g *Game) broadcastMsg(msg Envelope) {
	if g.gunner != nil {
		g.gunner.SendJSON(msg)
	}
	for _, c := range g.spectators {
		c.SendJSON(msg)
	}
}
