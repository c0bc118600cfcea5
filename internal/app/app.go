package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/piju/internal/artwork"
	"github.com/five82/piju/internal/config"
	"github.com/five82/piju/internal/events"
	"github.com/five82/piju/internal/mopidy"
	"github.com/five82/piju/internal/prefs"
	"github.com/five82/piju/internal/screenblank"
	"github.com/five82/piju/internal/state"
	"github.com/five82/piju/internal/ui"
)

// Options configure the piju application. Zero values keep whatever the
// config file says.
type Options struct {
	ConfigPath          string
	PrefsPath           string // empty uses default ~/.config/piju/prefs.toml
	Host                string
	PollEvery           time.Duration
	ManageScreenBlanker *bool
	Events              *bool
	Artwork             string
	LogFile             string
}

// Run boots piju until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logPath := resolveLogPath(cfg.LogFile)
	closeLog, err := setupLogging(logPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	client, err := mopidy.NewClient(cfg.ServerURL, mopidy.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return fmt.Errorf("init mopidy client: %w", err)
	}
	log.Printf("polling %s every %s", cfg.ServerURL, cfg.PollInterval)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var blanker ScreenBlanker
	if cfg.ManageScreenBlanker {
		mgr, err := screenblank.New()
		if err != nil {
			log.Printf("screen blank management disabled: %v", err)
		} else {
			defer func() { _ = mgr.Close() }()
			blanker = mgr
		}
	}

	// Runs before the deferred Close and closeLog, so no loop outlives them.
	var bg workers
	defer bg.stop(cancel)

	handoff := state.NewHandoff()
	poller := NewPoller(client, &artwork.Cache{}, handoff, blanker, cfg.PollInterval)
	bg.run(ctx, poller.Run)

	if cfg.Events {
		listener, err := events.NewListener(cfg.ServerURL, func(events.Event) { poller.Nudge() })
		if err != nil {
			log.Printf("event stream disabled: %v", err)
		} else {
			bg.run(ctx, listener.Run)
		}
	}

	return ui.Run(ctx, ui.Options{
		Client:      client,
		Handoff:     handoff,
		Refresh:     poller.Nudge,
		ServerURL:   cfg.ServerURL,
		ArtworkMode: cfg.Artwork,
		ThemeName:   userPrefs.Theme,
		ShowArtwork: userPrefs.ShowArtwork,
		PrefsPath:   opts.PrefsPath,
		LogPath:     logPath,
	})
}

// workers tracks the background loops started by Run.
type workers struct {
	wg sync.WaitGroup
}

func (w *workers) run(ctx context.Context, loop func(context.Context)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		loop(ctx)
	}()
}

// stop cancels the loops' context and waits for every loop to return.
func (w *workers) stop(cancel context.CancelFunc) {
	cancel()
	w.wg.Wait()
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}
	if opts.ManageScreenBlanker != nil {
		cfg.ManageScreenBlanker = *opts.ManageScreenBlanker
	}
	if opts.Events != nil {
		cfg.Events = *opts.Events
	}
	if opts.Artwork != "" {
		cfg.Artwork = opts.Artwork
	}
	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}
	if err := cfg.Finalize(); err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// resolveLogPath returns the configured log file, or piju-debug.log in the
// working directory when PIJU_DEBUG is set.
func resolveLogPath(configured string) string {
	if configured == "" && os.Getenv("PIJU_DEBUG") != "" {
		return "piju-debug.log"
	}
	return configured
}

// setupLogging sends log output to a file, since the terminal belongs to
// the UI. An empty path discards logs.
func setupLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "piju")
	if err != nil {
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}
