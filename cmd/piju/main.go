package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/five82/piju/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (default ~/.config/piju/config.toml)")
	prefsPath := flag.String("prefs", "", "override preferences path (default ~/.config/piju/prefs.toml)")
	host := flag.String("host", "", "Mopidy host, e.g. localhost, mopidy:6680 or http://proxy/base")
	poll := flag.Duration("poll", 0, "refresh interval (default 1s)")
	manageBlanker := flag.Bool("manage-screenblanker", false, "keep the screen on while playing")
	events := flag.Bool("events", false, "refresh early on Mopidy websocket events")
	artwork := flag.String("artwork", "", "artwork mode: kitty, text or off")
	logFile := flag.String("log-file", "", "write logs to this file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Host:       *host,
		Artwork:    *artwork,
		LogFile:    *logFile,
	}
	if d := *poll; d > 0 {
		opts.PollEvery = d
	}
	// Boolean flags only override the config file when given explicitly.
	if flag.CommandLine.Changed("manage-screenblanker") {
		opts.ManageScreenBlanker = manageBlanker
	}
	if flag.CommandLine.Changed("events") {
		opts.Events = events
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "piju: %v\n", err)
		return 1
	}
	return 0
}
