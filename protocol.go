package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin        = "join"  // take the turret
	MsgWatch       = "watch" // spectate
	MsgLeave       = "leave"
	MsgInput       = "input"
	MsgCreate      = "create" // create session
	MsgList        = "list"   // list sessions
	MsgCheck       = "check"  // check if session exists
	MsgRegister    = "register"
	MsgLogin       = "login"
	MsgAuth        = "auth"
	MsgLeaderboard = "leaderboard"
)

// Server -> Client message types
const (
	MsgState    = "state"
	MsgWelcome  = "welcome"
	MsgOver     = "over"
	MsgSessions = "sessions"
	MsgJoined   = "joined"
	MsgCreated  = "created" // session created, client should navigate
	MsgError    = "error"
	MsgChecked  = "checked" // session check response
	MsgAuthOK   = "auth_ok"
)

// Roles a connection can hold in a session
const (
	RoleGunner    = "gunner"
	RoleSpectator = "spectator"
)

// binaryInputLen is the size of a compact input frame:
// [0x01, mx_hi, mx_lo, my_hi, my_lo, flags]
const (
	binaryInputLen  = 6
	binaryInputTag  = 0x01
	inputFlagFire   = 0x01
	inputFlagReset  = 0x02
	binaryStateMark = 0xFF
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; Data is decoded per type
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClientInput is sent by the gunner whenever the pointer moves or a key is hit.
// Fire and Reset are edges: one shot per message with fire set.
type ClientInput struct {
	MX    float64  `json:"mx"`            // pointer X (world coords)
	MY    float64  `json:"my"`            // pointer Y (world coords)
	Aim   *float64 `json:"aim,omitempty"` // explicit angle, overrides the pointer
	Fire  bool     `json:"fire"`
	Reset bool     `json:"reset"`
}

// JoinMsg is sent when a client wants to man the turret or watch
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when a client wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// ProjectileState is one round on the wire
type ProjectileState struct {
	ID    uint32  `msgpack:"id"`
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	Trail []Point `msgpack:"tr"`
}

// HostileState is one hostile on the wire
type HostileState struct {
	ID uint32  `msgpack:"id"`
	X  float64 `msgpack:"x"`
	Y  float64 `msgpack:"y"`
	W  float64 `msgpack:"w"`
	H  float64 `msgpack:"h"`
}

// GameState is the binary state broadcast
type GameState struct {
	T           string            `msgpack:"t"`
	State       string            `msgpack:"st"`
	Score       int               `msgpack:"sc"`
	Tick        uint64            `msgpack:"tick"`
	Angle       float64           `msgpack:"a"`
	TurretX     float64           `msgpack:"tx"`
	TurretY     float64           `msgpack:"ty"`
	Projectiles []ProjectileState `msgpack:"pr"`
	Hostiles    []HostileState    `msgpack:"h"`
	AimPath     []Point           `msgpack:"aim"`
}

// NewGameState converts a snapshot to its wire form, rounding coordinates
func NewGameState(s Snapshot) GameState {
	gs := GameState{
		T:           MsgState,
		State:       s.State.String(),
		Score:       s.Score,
		Tick:        s.Tick,
		Angle:       round3(s.Turret.Angle),
		TurretX:     s.Turret.X,
		TurretY:     s.Turret.Y,
		Projectiles: make([]ProjectileState, 0, len(s.Projectiles)),
		Hostiles:    make([]HostileState, 0, len(s.Hostiles)),
		AimPath:     roundPoints(s.AimPath),
	}
	for _, p := range s.Projectiles {
		gs.Projectiles = append(gs.Projectiles, ProjectileState{
			ID: p.ID, X: round1(p.X), Y: round1(p.Y), Trail: roundPoints(p.Trail),
		})
	}
	for _, h := range s.Hostiles {
		gs.Hostiles = append(gs.Hostiles, HostileState{
			ID: h.ID, X: round1(h.X), Y: round1(h.Y),
			W: h.HitBox.MaxX - h.HitBox.MinX, H: h.HitBox.MaxY - h.HitBox.MinY,
		})
	}
	return gs
}

func roundPoints(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: round1(p.X), Y: round1(p.Y)}
	}
	return out
}

// WelcomeMsg is sent to a client when it joins
type WelcomeMsg struct {
	ID      string  `json:"id"`
	Role    string  `json:"role"`
	Width   float64 `json:"w"`
	Height  float64 `json:"h"`
	TurretX float64 `json:"tx"`
	TurretY float64 `json:"ty"`
}

// OverMsg is broadcast when a hostile breaches the defended edge
type OverMsg struct {
	Score    int     `json:"score"`
	Duration float64 `json:"duration"`
	Best     int     `json:"best,omitempty"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Gunner     bool   `json:"gunner"`
	Spectators int    `json:"spectators"`
	Score      int    `json:"score"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID    string `json:"sid"`
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
	Gunner bool   `json:"gunner,omitempty"`
}

// RegisterMsg / LoginMsg carry credentials
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes an earlier login with its token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms a successful register, login or token auth
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PilotID  int64  `json:"pid"`
}

// LeaderboardReq asks for the top N rounds
type LeaderboardReq struct {
	Limit int `json:"limit"`
}

// LeaderboardMsg answers a leaderboard request
type LeaderboardMsg struct {
	Entries []LeaderboardEntry `json:"entries"`
}
