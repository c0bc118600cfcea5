package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/piju/internal/mopidy"
	"github.com/five82/piju/internal/mopidy/mopidytest"
	"github.com/five82/piju/internal/state"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
host = "file-host"
events = true
artwork = "off"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	off := false
	cfg, err := loadConfig(Options{
		ConfigPath: path,
		Host:       "flag-host:7000",
		PollEvery:  3 * time.Second,
		Events:     &off,
	})
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.ServerURL != "http://flag-host:7000" {
		t.Fatalf("ServerURL = %q, want http://flag-host:7000", cfg.ServerURL)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("PollInterval = %v, want 3s", cfg.PollInterval)
	}
	if cfg.Events {
		t.Fatalf("Events = true, want flag override false")
	}
	if cfg.Artwork != "off" {
		t.Fatalf("Artwork = %q, want file value off", cfg.Artwork)
	}
}

func TestLoadConfig_RejectsBadArtworkFlag(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := loadConfig(Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		Artwork:    "ascii",
	})
	if err == nil {
		t.Fatalf("loadConfig returned nil error for unknown artwork mode")
	}
}

func TestResolveLogPath(t *testing.T) {
	t.Setenv("PIJU_DEBUG", "")
	if got := resolveLogPath(""); got != "" {
		t.Fatalf("resolveLogPath(\"\") = %q, want empty", got)
	}
	if got := resolveLogPath("/tmp/piju.log"); got != "/tmp/piju.log" {
		t.Fatalf("resolveLogPath kept %q", got)
	}

	t.Setenv("PIJU_DEBUG", "1")
	if got := resolveLogPath(""); got != "piju-debug.log" {
		t.Fatalf("resolveLogPath with PIJU_DEBUG = %q, want piju-debug.log", got)
	}
	if got := resolveLogPath("/tmp/piju.log"); got != "/tmp/piju.log" {
		t.Fatalf("configured path overridden by PIJU_DEBUG: %q", got)
	}
}

func TestSetupLogging_DiscardsWithoutFile(t *testing.T) {
	closeLog, err := setupLogging("")
	if err != nil {
		t.Fatalf("setupLogging returned error: %v", err)
	}
	closeLog()
}

func TestSetupLogging_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piju.log")
	closeLog, err := setupLogging(path)
	if err != nil {
		t.Fatalf("setupLogging returned error: %v", err)
	}
	closeLog()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

func TestWorkers_StopWaitsForLoops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var bg workers
	var finished atomic.Int32

	for i := 0; i < 2; i++ {
		bg.run(ctx, func(ctx context.Context) {
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
			finished.Add(1)
		})
	}

	bg.stop(cancel)
	if got := finished.Load(); got != 2 {
		t.Fatalf("stop returned with %d of 2 loops finished", got)
	}
}

func TestWorkers_StopStopsPoller(t *testing.T) {
	srv := mopidytest.NewServer()
	t.Cleanup(srv.Close)
	srv.SetResult(mopidy.MethodGetState, "playing")
	srv.SetResult(mopidy.MethodGetCurrentTrack, nil)
	srv.SetResult(mopidy.MethodGetVolume, 40)

	client, err := mopidy.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	blanker := &recordingBlanker{}
	handoff := state.NewHandoff()
	p := NewPoller(client, nil, handoff, blanker, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	var bg workers
	bg.run(ctx, p.Run)
	if _, err := handoff.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	bg.stop(cancel)
	after := blanker.count()
	time.Sleep(30 * time.Millisecond)
	if got := blanker.count(); got != after {
		t.Fatalf("blanker called %d times after stop", got-after)
	}
}
