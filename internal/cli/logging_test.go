package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLogger_WritesFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "hivera-detailed.log")
	closer, err := initLogger(slog.LevelInfo, path)
	if err != nil {
		t.Fatalf("initLogger failed: %v", err)
	}

	slog.With("component", "test").Info("Contribution success", "account", "alice")
	slog.Debug("hidden at info level")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	for _, want := range []string{"Contribution success", "account=alice", "component=test"} {
		if !strings.Contains(out, want) {
			t.Errorf("log file missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden at info level") {
		t.Error("debug record written at info level")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("log file contains color escapes")
	}
}

func TestInitLogger_BadPathFallsBackToConsole(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	closer, err := initLogger(slog.LevelInfo, filepath.Join(t.TempDir(), "missing", "x.log"))
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	if closer == nil || slog.Default() == prev {
		t.Error("expected console logger to be installed")
	}
	_ = closer.Close()
}

func TestTeeHandler_FansOutByLevel(t *testing.T) {
	var low, high bytes.Buffer
	h := teeHandler{
		slog.NewTextHandler(&low, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&high, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
	log := slog.New(h).With("cycle", 1)

	log.Debug("debug line")
	log.Warn("warn line")

	if !strings.Contains(low.String(), "debug line") || !strings.Contains(low.String(), "warn line") {
		t.Errorf("debug handler output: %s", low.String())
	}
	if strings.Contains(high.String(), "debug line") || !strings.Contains(high.String(), "cycle=1") {
		t.Errorf("warn handler output: %s", high.String())
	}
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("tee should be enabled when any handler is")
	}
}
