package main

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const maxSessions = 100

// SessionIdleTimeout is how long an empty session lingers before cleanup.
// A var so tests can shorten it.
var SessionIdleTimeout = 30 * time.Second

// Session represents a game session clients can join
type Session struct {
	ID   string
	Name string
	Game *Game

	emptySince time.Time // zero while someone is connected
}

// SessionManager handles creation, lookup and cleanup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	world       WorldConfig
	rules       GameplayConfig
	onRoundOver func(RoundRow)
	analytics   *Analytics
}

// NewSessionManager creates a SessionManager with default world settings
func NewSessionManager() *SessionManager {
	d := DefaultConfig()
	return NewSessionManagerWith(d.World, d.Gameplay)
}

// NewSessionManagerWith creates a SessionManager for the given settings
func NewSessionManagerWith(wc WorldConfig, rules GameplayConfig) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		world:    wc,
		rules:    rules,
	}
}

// CreateSession creates and starts a new session. Returns nil if the limit
// is reached or the world cannot be built.
func (sm *SessionManager) CreateSession(name string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := GenerateUUID()
	game, err := NewGame(id, sm.world, sm.rules)
	if err != nil {
		log.Error().Err(err).Msg("create session")
		return nil
	}
	game.onRoundOver = sm.onRoundOver
	game.analytics = sm.analytics

	sess := &Session{
		ID:         id,
		Name:       name,
		Game:       game,
		emptySince: time.Now(),
	}
	sm.sessions[id] = sess
	go game.Run()

	sm.analytics.Track(EvtSessionStart, 0, id, "")
	log.Info().Str("sid", id).Str("name", name).Msg("session created")
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// MarkActive clears a session's idle clock
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.emptySince = time.Time{}
	}
}

// RemoveClient removes a client from a session and starts the idle clock
// when the session empties
func (sm *SessionManager) RemoveClient(sessionID, clientID string) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.Game.RemoveClient(clientID)

	if sess.Game.ClientCount() == 0 {
		sm.mu.Lock()
		if sess.emptySince.IsZero() {
			sess.emptySince = time.Now()
		}
		sm.mu.Unlock()
	}
}

// Cleanup stops and removes sessions that have been empty for longer than
// SessionIdleTimeout. Returns the number removed.
func (sm *SessionManager) Cleanup(now time.Time) int {
	sm.mu.Lock()
	var stale []*Session
	for id, sess := range sm.sessions {
		if sess.emptySince.IsZero() || now.Sub(sess.emptySince) < SessionIdleTimeout {
			continue
		}
		if sess.Game.ClientCount() > 0 {
			sess.emptySince = time.Time{}
			continue
		}
		stale = append(stale, sess)
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	for _, sess := range stale {
		sess.Game.Stop()
		sm.analytics.Track(EvtSessionEnd, 0, sess.ID, "")
		log.Info().Str("sid", sess.ID).Msg("idle session removed")
	}
	return len(stale)
}

// RunJanitor calls Cleanup periodically until stop is closed
func (sm *SessionManager) RunJanitor(stop <-chan struct{}) {
	every := SessionIdleTimeout / 3
	if every < 10*time.Millisecond {
		every = 10 * time.Millisecond
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			sm.Cleanup(now)
		case <-stop:
			return
		}
	}
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		sessions = append(sessions, sess)
	}
	sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		n := sess.Game.ClientCount()
		gunner := sess.Game.HasGunner()
		if gunner {
			n--
		}
		list = append(list, SessionInfo{
			ID:         sess.ID,
			Name:       sess.Name,
			Gunner:     gunner,
			Spectators: n,
			Score:      sess.Game.Score(),
		})
	}
	return list
}

// StopAll stops every session's game loop
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		sess.Game.Stop()
		delete(sm.sessions, id)
	}
}
