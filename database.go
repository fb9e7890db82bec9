package main

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PilotRow represents a registered pilot
type PilotRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// RoundRow represents one finished round
type RoundRow struct {
	ID        int64
	PilotID   int64 // 0 = guest
	Name      string
	SessionID string
	Score     int
	Duration  float64 // simulated seconds
	Shots     int
	CreatedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		conn.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pilots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pilot_id INTEGER REFERENCES pilots(id),
		name TEXT NOT NULL DEFAULT '',
		session_id TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		shots INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		pilot_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rounds_score ON rounds(score DESC);
	CREATE INDEX IF NOT EXISTS idx_rounds_pilot ON rounds(pilot_id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(event_type, created_at);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Error().Err(err).Msg("db migration failed")
	}
	return err
}

// CreatePilot creates a new pilot account (returns pilot ID)
func (db *DB) CreatePilot(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO pilots (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPilotByUsername returns a pilot by username, nil if absent
func (db *DB) GetPilotByUsername(username string) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM pilots WHERE username = ?",
		username,
	)
	return scanPilot(row)
}

// GetPilotByID returns a pilot by ID, nil if absent
func (db *DB) GetPilotByID(id int64) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM pilots WHERE id = ?",
		id,
	)
	return scanPilot(row)
}

func scanPilot(row *sql.Row) (*PilotRow, error) {
	p := &PilotRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM pilots WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// RecordRound stores a finished round and returns its ID
func (db *DB) RecordRound(r RoundRow) (int64, error) {
	pid := sql.NullInt64{Int64: r.PilotID, Valid: r.PilotID > 0}
	res, err := db.conn.Exec(
		`INSERT INTO rounds (pilot_id, name, session_id, score, duration, shots)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		pid, r.Name, r.SessionID, r.Score, r.Duration, r.Shots,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// BestRounds returns the highest-scoring rounds, ties broken by the shorter
// round and then the earlier one
func (db *DB) BestRounds(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(`
		SELECT name, score, duration FROM rounds
		ORDER BY score DESC, duration ASC, id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]LeaderboardEntry, 0, limit)
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.Score, &e.Duration); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// PilotBest returns a pilot's best score, 0 if they have no rounds
func (db *DB) PilotBest(pilotID int64) (int, error) {
	var best sql.NullInt64
	err := db.conn.QueryRow("SELECT MAX(score) FROM rounds WHERE pilot_id = ?", pilotID).Scan(&best)
	if err != nil {
		return 0, err
	}
	return int(best.Int64), nil
}

// GetSetting returns a stored setting, "" if absent
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
