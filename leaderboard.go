package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	Duration float64 `json:"duration"`
}

// Leaderboard ranks finished rounds
type Leaderboard interface {
	Submit(ctx context.Context, r RoundRow) error
	Top(ctx context.Context, n int) ([]LeaderboardEntry, error)
}

func clampLeaderboardSize(n int) int {
	if n <= 0 {
		return defaultLeaderboardSize
	}
	if n > maxLeaderboardSize {
		return maxLeaderboardSize
	}
	return n
}

// SQLLeaderboard ranks straight from the rounds table
type SQLLeaderboard struct {
	db *DB
}

// NewSQLLeaderboard creates a leaderboard over db
func NewSQLLeaderboard(db *DB) *SQLLeaderboard {
	return &SQLLeaderboard{db: db}
}

// Submit is a no-op: the round is already in the rounds table
func (l *SQLLeaderboard) Submit(ctx context.Context, r RoundRow) error {
	return nil
}

// Top returns the n best rounds
func (l *SQLLeaderboard) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	return l.db.BestRounds(clampLeaderboardSize(n))
}

// RedisLeaderboard keeps each name's best score in a sorted set and the
// duration of that round in a hash next to it
type RedisLeaderboard struct {
	client *redis.Client
	key    string
}

// NewRedisLeaderboard connects to redis and checks the connection
func NewRedisLeaderboard(cfg RedisConfig) (*RedisLeaderboard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	key := cfg.Key
	if key == "" {
		key = "turret:leaderboard"
	}
	log.Info().Str("addr", cfg.Addr).Str("key", key).Msg("redis leaderboard connected")
	return &RedisLeaderboard{client: client, key: key}, nil
}

func (l *RedisLeaderboard) durationKey() string {
	return l.key + ":duration"
}

// submitBest raises a name's score and stores the matching duration in one
// atomic step. Equal or lower scores leave both untouched.
var submitBest = redis.NewScript(`
local prev = redis.call('ZSCORE', KEYS[1], ARGV[1])
if prev and tonumber(prev) >= tonumber(ARGV[2]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// Submit records r if it beats the name's previous best
func (l *RedisLeaderboard) Submit(ctx context.Context, r RoundRow) error {
	dur := strconv.FormatFloat(r.Duration, 'f', 3, 64)
	return submitBest.Run(ctx, l.client, []string{l.key, l.durationKey()}, r.Name, r.Score, dur).Err()
}

// Top returns the n best names by score
func (l *RedisLeaderboard) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	n = clampLeaderboardSize(n)
	members, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []LeaderboardEntry{}, nil
	}

	names := make([]string, len(members))
	for i, m := range members {
		names[i], _ = m.Member.(string)
	}
	durs, err := l.client.HMGet(ctx, l.durationKey(), names...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for i, m := range members {
		e := LeaderboardEntry{Rank: i + 1, Name: names[i], Score: int(m.Score)}
		if s, ok := durs[i].(string); ok {
			e.Duration, _ = strconv.ParseFloat(s, 64)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close releases the redis connection pool
func (l *RedisLeaderboard) Close() error {
	return l.client.Close()
}

// NewLeaderboard builds the configured backend. A nil leaderboard with a nil
// error means ranking is disabled.
func NewLeaderboard(cfg *Config, db *DB) (Leaderboard, error) {
	switch cfg.Leaderboard.Backend {
	case "redis":
		lb, err := NewRedisLeaderboard(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return lb, nil
	case "sqlite":
		if db == nil {
			return nil, nil
		}
		return NewSQLLeaderboard(db), nil
	}
	return nil, nil
}
