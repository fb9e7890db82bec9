package main

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000

	recordTimeout = 5 * time.Second
)

// Hub manages all connected clients and routes them to sessions
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	done       chan struct{}
	stopOnce   sync.Once
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	// Persistence; any of these may be nil
	db          *DB
	auth        *Auth
	leaderboard Leaderboard
	analytics   *Analytics
	lbSize      int
}

// NewHub creates a Hub. cfg nil means defaults; db, lb and analytics are
// optional and disable their features when nil.
func NewHub(cfg *Config, db *DB, lb Leaderboard, analytics *Analytics) *Hub {
	if cfg == nil {
		d := DefaultConfig()
		cfg = &d
	}
	h := &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		sessions:    NewSessionManagerWith(cfg.World, cfg.Gameplay),
		done:        make(chan struct{}),
		ipConns:     make(map[string]int),
		db:          db,
		leaderboard: lb,
		analytics:   analytics,
		lbSize:      cfg.Leaderboard.Size,
	}
	if db != nil {
		h.auth = NewAuth(db)
	}
	h.sessions.onRoundOver = h.recordRound
	h.sessions.analytics = analytics
	return h
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events and cleans idle sessions
func (h *Hub) Run() {
	go h.sessions.RunJanitor(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			if client.sessionID != "" {
				h.sessions.RemoveClient(client.sessionID, client.id)
			}

		case <-h.done:
			return
		}
	}
}

// Stop ends Run and the session janitor and stops every game loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	h.sessions.StopAll()
}

// recordRound persists a finished round. It runs off the game loop.
func (h *Hub) recordRound(r RoundRow) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if h.db != nil {
		if _, err := h.db.RecordRound(r); err != nil {
			log.Error().Err(err).Str("sid", r.SessionID).Msg("record round")
		}
	}
	if h.leaderboard != nil {
		if err := h.leaderboard.Submit(ctx, r); err != nil {
			log.Error().Err(err).Str("sid", r.SessionID).Msg("leaderboard submit")
		}
	}
}

// TopRounds returns the leaderboard, empty when ranking is disabled
func (h *Hub) TopRounds(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if h.leaderboard == nil {
		return []LeaderboardEntry{}, nil
	}
	if n <= 0 {
		n = h.lbSize
	}
	return h.leaderboard.Top(ctx, n)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
