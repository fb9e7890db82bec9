package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL          = 7 * 24 * time.Hour
	tokenIssuer       = "turret-server"
	minCallsignLen    = 2
	maxCallsignLen    = 16
	minPasswordLen    = 4
	loginWindow       = 60 * time.Second
	maxLoginAttempts  = 10
	signingKeySetting = "jwt_secret"
	guestPrefix       = "Guest_"
)

// bcryptCost is a var so tests can use bcrypt.MinCost
var bcryptCost = 12

var (
	ErrBadCredentials  = errors.New("invalid callsign or password")
	ErrRateLimited     = errors.New("too many login attempts, try again later")
	ErrCallsignTaken   = errors.New("callsign already taken")
	ErrInvalidCallsign = errors.New("invalid callsign")
	ErrWeakPassword    = errors.New("password too short")
)

// Pilot is an authenticated account
type Pilot struct {
	ID       int64
	Callsign string
}

// Credentials is what a pilot presents to enlist or sign in
type Credentials struct {
	Callsign string
	Password string
}

// Validate checks the rules for a new account. Callsigns are letters, digits,
// '_' and '-'; the guest prefix is reserved.
func (c Credentials) Validate() error {
	cs := strings.TrimSpace(c.Callsign)
	if n := len(cs); n < minCallsignLen || n > maxCallsignLen {
		return fmt.Errorf("%w: must be %d-%d characters", ErrInvalidCallsign, minCallsignLen, maxCallsignLen)
	}
	for _, r := range cs {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
			return fmt.Errorf("%w: %q not allowed", ErrInvalidCallsign, r)
		}
	}
	if strings.HasPrefix(cs, guestPrefix) {
		return fmt.Errorf("%w: %s is reserved for guests", ErrInvalidCallsign, guestPrefix)
	}
	if len(c.Password) < minPasswordLen {
		return fmt.Errorf("%w: at least %d characters", ErrWeakPassword, minPasswordLen)
	}
	return nil
}

// pilotClaims is the token payload. The subject carries the pilot ID.
type pilotClaims struct {
	Callsign string `json:"cs"`
	jwt.RegisteredClaims
}

// Auth enlists pilots and issues the tokens that tie rounds to them
type Auth struct {
	db     *DB
	key    []byte
	logins *attemptLimiter
}

// NewAuth creates an Auth over db, reusing a persisted signing key if present
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:     db,
		key:    loadSigningKey(db),
		logins: newAttemptLimiter(loginWindow, maxLoginAttempts),
	}
}

// loadSigningKey returns the stored HMAC key, generating and storing one on
// first start so tokens survive restarts.
func loadSigningKey(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting(signingKeySetting); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("failed to generate signing key: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting(signingKeySetting, hex.EncodeToString(key)); err != nil {
			log.Warn().Err(err).Msg("could not persist signing key")
		}
	}
	return key
}

// Register enlists a new pilot and signs them in
func (a *Auth) Register(cred Credentials) (Pilot, string, error) {
	if err := cred.Validate(); err != nil {
		return Pilot{}, "", err
	}
	callsign := strings.TrimSpace(cred.Callsign)

	taken, err := a.db.UsernameExists(callsign)
	if err != nil {
		return Pilot{}, "", fmt.Errorf("lookup callsign: %w", err)
	}
	if taken {
		return Pilot{}, "", ErrCallsignTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), bcryptCost)
	if err != nil {
		return Pilot{}, "", fmt.Errorf("hash password: %w", err)
	}
	id, err := a.db.CreatePilot(callsign, string(hash))
	if err != nil {
		// Lost a race with another enlistment under the same callsign
		if strings.Contains(err.Error(), "UNIQUE") {
			return Pilot{}, "", ErrCallsignTaken
		}
		return Pilot{}, "", fmt.Errorf("create pilot: %w", err)
	}

	p := Pilot{ID: id, Callsign: callsign}
	token, err := a.issue(p)
	if err != nil {
		return Pilot{}, "", err
	}
	log.Info().Int64("pilot", id).Str("callsign", callsign).Msg("pilot enlisted")
	return p, token, nil
}

// Login checks a pilot's password. Attempts are limited per address.
func (a *Auth) Login(cred Credentials, addr string) (Pilot, string, error) {
	if !a.logins.allow(addr, time.Now()) {
		return Pilot{}, "", ErrRateLimited
	}

	row, err := a.db.GetPilotByUsername(strings.TrimSpace(cred.Callsign))
	if err != nil {
		return Pilot{}, "", fmt.Errorf("lookup pilot: %w", err)
	}
	if row == nil || row.PassHash == "" {
		return Pilot{}, "", ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(row.PassHash), []byte(cred.Password)) != nil {
		return Pilot{}, "", ErrBadCredentials
	}

	p := Pilot{ID: row.ID, Callsign: row.Username}
	token, err := a.issue(p)
	if err != nil {
		return Pilot{}, "", err
	}
	return p, token, nil
}

// ValidateToken returns the pilot a token was issued to
func (a *Auth) ValidateToken(token string) (Pilot, error) {
	claims := &pilotClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return a.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Pilot{}, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 || claims.Callsign == "" {
		return Pilot{}, fmt.Errorf("token carries no pilot")
	}
	return Pilot{ID: id, Callsign: claims.Callsign}, nil
}

func (a *Auth) issue(p Pilot) (string, error) {
	now := time.Now()
	claims := pilotClaims{
		Callsign: p.Callsign,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// attemptLimiter allows max attempts per key within a fixed window
type attemptLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string]*attemptWindow
}

type attemptWindow struct {
	count   int
	resetAt time.Time
}

func newAttemptLimiter(window time.Duration, max int) *attemptLimiter {
	return &attemptLimiter{window: window, max: max, hits: make(map[string]*attemptWindow)}
}

func (l *attemptLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.hits[key]
	if !ok || now.After(w.resetAt) {
		if len(l.hits) > 1024 {
			for k, old := range l.hits {
				if now.After(old.resetAt) {
					delete(l.hits, k)
				}
			}
		}
		l.hits[key] = &attemptWindow{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	w.count++
	return w.count <= l.max
}

// GuestCallsign makes a throwaway callsign like "Guest_a3f2c1" for gunners
// who have not signed in
func GuestCallsign() string {
	return guestPrefix + GenerateID(3)
}
