package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

func main() {
	configDir := flag.String("config", "", "Directory containing "+ConfigName)
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	selfTest := flag.Bool("selftest", false, "Fire one round in a headless world, log its flight and exit")
	flag.Parse()

	cfg, err := LoadConfig(*configDir)
	if err != nil {
		SetupLogging("info", true, os.Stderr)
		log.Fatal().Err(err).Msg("config")
	}
	SetupLogging(cfg.LogLevel, cfg.LogPretty, os.Stdout)

	if *selfTest {
		if err := runSelfTest(cfg.World); err != nil {
			log.Fatal().Err(err).Msg("selftest failed")
		}
		return
	}

	if *addr != "" {
		cfg.Addr = *addr
	}
	if *clientDir != "" {
		cfg.ClientDir = *clientDir
	}
	if cfg.ClientDir == "" {
		exe, _ := os.Executable()
		cfg.ClientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(cfg.ClientDir); os.IsNotExist(err) {
			cfg.ClientDir = "../client"
		}
	}

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()

	analytics := NewAnalytics(db)
	defer analytics.Stop()

	lb, err := NewLeaderboard(cfg, db)
	if err != nil {
		log.Warn().Err(err).Msg("leaderboard backend unavailable, falling back to sqlite")
		lb = NewSQLLeaderboard(db)
	}
	if closer, ok := lb.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	hub := NewHub(cfg, db, lb, analytics)
	go hub.Run()
	defer hub.Stop()

	mux := SetupRoutes(hub, cfg.ClientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("client", cfg.ClientDir).
			Str("leaderboard", cfg.Leaderboard.Backend).Msg("server starting")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	<-stop
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
