package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/marketgame/market-engine/internal/config"
)

func TestSimulate(t *testing.T) {
	cfg := config.Defaults()
	cfg.Game.Seed = 42
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var first, second bytes.Buffer
	if err := simulate(&first, &cfg, 10, "trend", logger); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if err := simulate(&second, &cfg, 10, "trend", logger); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(first.String(), "PLAYER") || !strings.Contains(first.String(), "Trader") {
		t.Errorf("missing standings:\n%s", first.String())
	}
	if first.String() != second.String() {
		t.Errorf("same seed gave different games:\n%s\n---\n%s", first.String(), second.String())
	}
}

func TestSimulate_UnknownStrategy(t *testing.T) {
	cfg := config.Defaults()
	cfg.Game.Seed = 1
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := simulate(io.Discard, &cfg, 1, "martingale", logger); err == nil {
		t.Error("expected an error for an unknown strategy")
	}
}

func TestNewSource(t *testing.T) {
	if newSource(7).Float64() != newSource(7).Float64() {
		t.Error("seeded sources diverged")
	}
}
