package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupLoggingJSON(t *testing.T) {
	prev := log.Logger
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	var buf bytes.Buffer
	SetupLogging("warn", false, &buf)
	log.Info().Msg("hidden")
	l := sessionLogger("abc")
	l.Warn().Int("score", 3).Msg("shown")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["sid"] != "abc" || entry["level"] != "warn" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["time"] == nil {
		t.Error("entries should be timestamped")
	}
}

func TestSetupLoggingUnknownLevel(t *testing.T) {
	prev := log.Logger
	defer func() { log.Logger = prev }()

	SetupLogging("chatty", false, &bytes.Buffer{})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info, got %v", zerolog.GlobalLevel())
	}
}
