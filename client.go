package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // pointer moves arrive at frame rate
	maxNameLen        = 16
	maxSessionNameLen = 30
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	name       string
	role       string
	sessionID  string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	// Auth state
	authPilotID  int64  // 0 = guest
	authUsername string // "" = guest
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         GenerateID(6),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("ip", c.remoteAddr).Msg("ws closed")
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Warn().Str("ip", c.remoteAddr).Msg("rate limit exceeded, disconnecting")
			break
		}

		if msgType == websocket.BinaryMessage && len(message) == binaryInputLen && message[0] == binaryInputTag {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == binaryStateMark {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("marshal")
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = binaryStateMark
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("ip", c.remoteAddr).Msg("bad envelope")
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D, RoleGunner)
	case MsgWatch:
		c.handleJoin(env.D, RoleSpectator)
	case MsgInput:
		c.handleInput(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgLeaderboard:
		c.handleLeaderboard(env.D)
	}
}

func (c *Client) handleList() {
	c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})
}

func clipName(name, fallback string, n int) string {
	if name == "" {
		name = fallback
	}
	if len(name) > n {
		name = name[:n]
	}
	return name
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := clipName(msg.SessionName, "Skyline", maxSessionNameLen)

	sess := c.hub.sessions.CreateSession(sname)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage, role string) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := msg.Name
	if c.authUsername != "" {
		name = c.authUsername
	}
	name = clipName(name, GuestCallsign(), maxNameLen)

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	if c.sessionID != "" && (c.sessionID != sess.ID || c.role != role) {
		c.handleLeave()
	}

	switch role {
	case RoleGunner:
		if !sess.Game.SetGunner(c.id, name, c.authPilotID, c) {
			c.sendError("turret already manned")
			return
		}
	default:
		if !sess.Game.AddSpectator(c.id, c) {
			c.sendError("session full")
			return
		}
	}
	c.hub.sessions.MarkActive(sess.ID)
	c.sessionID = sess.ID
	c.name = name
	c.role = role

	cfg := c.hub.sessions.world.Field
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID, "role": role}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		ID:      c.id,
		Role:    role,
		Width:   cfg.Width,
		Height:  cfg.Height,
		TurretX: cfg.TurretX,
		TurretY: cfg.TurretY,
	}})
}

// handleBinaryInput decodes a compact 6-byte input frame
func (c *Client) handleBinaryInput(msg []byte) {
	mx := float64(int16(uint16(msg[1])<<8 | uint16(msg[2])))
	my := float64(int16(uint16(msg[3])<<8 | uint16(msg[4])))
	flags := msg[5]
	c.applyInput(ClientInput{
		MX:    mx,
		MY:    my,
		Fire:  flags&inputFlagFire != 0,
		Reset: flags&inputFlagReset != 0,
	})
}

func (c *Client) handleInput(data json.RawMessage) {
	var input ClientInput
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	c.applyInput(input)
}

func (c *Client) applyInput(input ClientInput) {
	if c.sessionID == "" || c.role != RoleGunner {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	if err := sess.Game.HandleInput(c.id, input); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:    msg.SID,
		Exists: true,
		Name:   sess.Name,
		Gunner: sess.Game.HasGunner(),
	}})
}

func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	c.hub.sessions.RemoveClient(c.sessionID, c.id)
	c.sessionID = ""
	c.role = ""
}

func (c *Client) authOK(p Pilot, token string) {
	c.authPilotID = p.ID
	c.authUsername = p.Callsign
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: p.Callsign,
		PilotID:  p.ID,
	}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	pilot, token, err := c.hub.auth.Register(Credentials{Callsign: msg.Username, Password: msg.Password})
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authOK(pilot, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	pilot, token, err := c.hub.auth.Login(Credentials{Callsign: msg.Username, Password: msg.Password}, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.hub.analytics.Track(EvtLogin, pilot.ID, "", "")
	c.authOK(pilot, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	pilot, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	c.authOK(pilot, msg.Token)
}

func (c *Client) handleLeaderboard(data json.RawMessage) {
	var req LeaderboardReq
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	entries, err := c.hub.TopRounds(ctx, req.Limit)
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			log.Error().Err(err).Msg("leaderboard query")
		}
		c.sendError("leaderboard unavailable")
		return
	}
	c.SendJSON(Envelope{T: MsgLeaderboard, Data: LeaderboardMsg{Entries: entries}})
}
