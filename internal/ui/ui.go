package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/piju/internal/state"
)

// Controller issues playback control methods to the server.
type Controller interface {
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Pause(ctx context.Context) error
	Play(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Client      Controller
	Handoff     *state.Handoff
	Refresh     func() // asks the poller for an early cycle after a control
	ServerURL   string
	ArtworkMode string
	ThemeName   string
	ShowArtwork bool
	PrefsPath   string
	LogPath     string // shown by the log pane; empty disables it
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Handoff == nil {
		return fmt.Errorf("ui requires a snapshot handoff")
	}
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
