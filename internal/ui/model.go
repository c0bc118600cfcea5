package ui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/piju/internal/config"
	"github.com/five82/piju/internal/logtail"
	"github.com/five82/piju/internal/prefs"
	"github.com/five82/piju/internal/state"
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	client      Controller
	handoff     *state.Handoff
	refresh     func()
	serverURL   string
	artworkMode string
	prefsPath   string
	logPath     string

	// UI state
	theme       Theme
	keys        keyMap
	help        help.Model
	showHelp    bool
	showArtwork bool
	showLog     bool
	width       int
	height      int
	cell        cellSize

	// Data state
	snapshot    state.Snapshot
	hasSnapshot bool
	status      string // outcome of the last control, cleared by the next snapshot
	art         renderedArtwork
	logLines    []string
}

// New creates a new Bubble Tea model.
func New(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	mode := opts.ArtworkMode
	if mode == "" {
		mode = config.ArtworkText
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:         ctx,
		client:      opts.Client,
		handoff:     opts.Handoff,
		refresh:     opts.Refresh,
		serverURL:   opts.ServerURL,
		artworkMode: mode,
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		theme:       GetTheme(opts.ThemeName),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		showArtwork: opts.ShowArtwork,
		cell:        terminalCellSize(),
	}
}

// Messages

type snapshotMsg state.Snapshot

// handoffClosedMsg reports that the handoff can no longer deliver snapshots.
type handoffClosedMsg struct{ err error }

type logLinesMsg struct {
	lines []string
	err   error
}

type controlDoneMsg struct {
	action string
	err    error
}

// Commands

// waitForSnapshot blocks until the poller publishes. Update re-arms it only
// after applying the snapshot it delivered.
func waitForSnapshot(ctx context.Context, h *state.Handoff) tea.Cmd {
	return func() tea.Msg {
		snap, err := h.Next(ctx)
		if err != nil {
			return handoffClosedMsg{err: err}
		}
		return snapshotMsg(snap)
	}
}

func controlCmd(ctx context.Context, action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return controlDoneMsg{action: action, err: fn(ctx)}
	}
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logPaneLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.handoff == nil {
		return nil
	}
	return waitForSnapshot(m.ctx, m.handoff)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateArtwork()
		return m, nil

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.hasSnapshot = true
		m.status = ""
		m.updateArtwork()
		if m.showLog {
			return m, tea.Batch(waitForSnapshot(m.ctx, m.handoff), readLogCmd(m.logPath))
		}
		return m, waitForSnapshot(m.ctx, m.handoff)

	case logLinesMsg:
		if msg.err != nil {
			m.logLines = []string{"log unavailable: " + msg.err.Error()}
			return m, nil
		}
		m.logLines = msg.lines
		return m, nil

	case handoffClosedMsg:
		log.Printf("snapshot handoff closed: %v", msg.err)
		return m, tea.Quit

	case controlDoneMsg:
		if msg.err != nil {
			log.Printf("%s failed: %v", msg.action, msg.err)
			m.status = msg.action + " failed"
			return m, nil
		}
		if m.refresh != nil {
			m.refresh()
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleLog):
		if m.logPath == "" {
			m.status = "log pane needs a log file"
			return m, nil
		}
		m.showLog = !m.showLog
		if m.showLog {
			return m, readLogCmd(m.logPath)
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleArtwork):
		m.showArtwork = !m.showArtwork
		m.savePrefs()
		m.updateArtwork()
		return m, nil
	}

	if m.client == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		return m, controlCmd(m.ctx, "next", m.client.Next)

	case key.Matches(msg, m.keys.Previous):
		return m, controlCmd(m.ctx, "previous", m.client.Previous)

	case key.Matches(msg, m.keys.PlayPause):
		if m.snapshot.NowPlaying.PlaybackState == state.Playing {
			return m, controlCmd(m.ctx, "pause", m.client.Pause)
		}
		return m, controlCmd(m.ctx, "play", m.client.Play)
	}

	return m, nil
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, ShowArtwork: m.showArtwork}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		log.Printf("save prefs: %v", err)
	}
}

// artworkVisible reports whether the artwork column should be drawn at all.
func (m Model) artworkVisible() bool {
	return m.showArtwork && m.artworkMode != config.ArtworkOff && m.snapshot.NowPlaying.HasArtwork()
}

// updateArtwork re-encodes the kitty sequence when the image or the box it
// must fit in has changed.
func (m *Model) updateArtwork() {
	if m.artworkMode != config.ArtworkKitty || !m.artworkVisible() || m.width == 0 {
		m.art = renderedArtwork{}
		return
	}
	np := m.snapshot.NowPlaying
	uri := *np.ArtworkURI
	cell := m.cellSize()
	boxW, boxH := artworkBox(m.width, m.height, cell)
	if m.art.uri == uri && m.art.box.X == boxW && m.art.box.Y == boxH {
		return
	}

	start := time.Now()
	art, err := encodeKitty(np.Artwork, boxW, boxH, cell)
	if err != nil {
		log.Printf("render artwork %s: %v", uri, err)
	} else {
		log.Printf("rendered artwork %s in %s", uri, time.Since(start).Round(time.Millisecond))
	}
	art.uri = uri
	art.box.X, art.box.Y = boxW, boxH
	m.art = art
}

func (m Model) cellSize() cellSize {
	if m.cell.Width <= 0 || m.cell.Height <= 0 {
		return fallbackCell
	}
	return m.cell
}
