package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/piju/internal/config"
	"github.com/five82/piju/internal/state"
)

const (
	unknownTrack  = "<Unknown track>"
	unknownArtist = "<Unknown artist>"

	// kittyDeleteAll removes every image placement from the screen.
	kittyDeleteAll = "\x1b_Ga=d\x1b\\"

	logPaneLines = 8
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	styles := m.theme.Styles()

	sections := []string{m.renderHeader(styles), ""}
	if m.hasSnapshot {
		sections = append(sections, m.renderBody(styles))
	} else {
		sections = append(sections, styles.MutedText.Render("Connecting to "+m.serverURL+"..."))
	}
	if m.showLog {
		sections = append(sections, "", m.renderLog(styles))
	}
	sections = append(sections, "", m.renderFooter(styles))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return styles.Screen.
		Width(m.width).
		Height(m.height).
		Padding(0, 1).
		Render(content)
}

// renderHeader shows the app name, the server and the connection indicator.
func (m Model) renderHeader(styles Styles) string {
	parts := []string{
		styles.AccentText.Bold(true).Render("piju"),
		styles.FaintText.Render(m.serverURL),
	}
	if m.hasSnapshot && m.snapshot.ConnectionError {
		parts = append(parts, styles.Danger.Render("● disconnected"))
	}
	return strings.Join(parts, "  ")
}

// renderBody lays out the artwork column next to the track details.
func (m Model) renderBody(styles Styles) string {
	info := m.renderInfo(styles)
	art := m.renderArtwork(styles)
	if art == "" {
		if m.artworkMode == config.ArtworkKitty {
			return kittyDeleteAll + info
		}
		return info
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, art, "   ", info)
}

// renderInfo renders the track, artist, album and playback lines.
func (m Model) renderInfo(styles Styles) string {
	np := m.snapshot.NowPlaying
	lines := []string{
		styles.Title.Render(valueOr(np.TrackName, unknownTrack)),
		styles.Artist.Render(valueOr(np.ArtistName, unknownArtist)),
	}
	if np.AlbumName != nil {
		lines = append(lines, styles.Album.Render(*np.AlbumName))
	}
	if pos := trackPosition(np); pos != "" {
		lines = append(lines, styles.FaintText.Render(pos))
	}
	lines = append(lines, "", m.renderPlayback(styles))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderPlayback(styles Styles) string {
	np := m.snapshot.NowPlaying
	var badge string
	switch np.PlaybackState {
	case state.Playing:
		badge = styles.Playing.Render("▶ Playing")
	case state.Paused:
		badge = styles.Paused.Render("⏸ Paused")
	default:
		badge = styles.MutedText.Render("■ Stopped")
	}
	return badge + "   " + styles.MutedText.Render(fmt.Sprintf("vol %d%%", np.Volume))
}

// renderArtwork returns the artwork column, or "" when nothing is shown.
func (m Model) renderArtwork(styles Styles) string {
	if !m.artworkVisible() {
		return ""
	}
	if m.artworkMode == config.ArtworkKitty && m.art.seq != "" {
		return kittyBlock(m.art)
	}
	return m.renderPlaceholder(styles)
}

// kittyBlock reserves art.cols×art.rows cells and draws the image over them
// without moving the cursor.
func kittyBlock(art renderedArtwork) string {
	pad := strings.Repeat(" ", art.cols)
	lines := make([]string, max(art.rows, 1))
	for i := range lines {
		lines[i] = pad
	}
	lines[0] = kittyDeleteAll + noCursorMove(art.seq) + pad
	return strings.Join(lines, "\n")
}

// noCursorMove sets C=1 on the first graphics command so the terminal
// leaves the cursor where the image starts.
func noCursorMove(seq string) string {
	return strings.Replace(seq, "\x1b_G", "\x1b_GC=1,", 1)
}

// renderPlaceholder draws a frame of the size the artwork would take, with
// its natural dimensions inside.
func (m Model) renderPlaceholder(styles Styles) string {
	np := m.snapshot.NowPlaying
	cell := m.cellSize()
	boxW, boxH := artworkBox(m.width, m.height, cell)
	w, h := fitWithin(*np.ArtworkWidth, *np.ArtworkHeight, boxW, boxH)
	cols, rows := cellsFor(w, h, cell)
	label := fmt.Sprintf("artwork %d×%d", *np.ArtworkWidth, *np.ArtworkHeight)
	cols = max(cols, lipgloss.Width(label))
	rows = max(rows, 1)
	return styles.Frame.
		Width(cols).
		Height(rows).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FaintText.Render(label))
}

// renderLog shows the tail of the log file, one truncated line per row.
func (m Model) renderLog(styles Styles) string {
	width := max(m.width-4, 10)
	lines := []string{styles.AccentText.Render("log " + m.logPath)}
	if len(m.logLines) == 0 {
		lines = append(lines, styles.FaintText.Render("(empty)"))
	}
	for _, line := range m.logLines {
		lines = append(lines, styles.FaintText.Render(ansi.Truncate(line, width, "…")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderFooter shows the last control failure and the key help.
func (m Model) renderFooter(styles Styles) string {
	h := m.help
	h.Styles.ShortKey = styles.Key
	h.Styles.FullKey = styles.Key
	h.Styles.ShortDesc = styles.MutedText
	h.Styles.FullDesc = styles.MutedText
	footer := h.View(m.keys)
	if m.status != "" {
		footer = styles.Danger.Render(m.status) + "\n" + footer
	}
	return footer
}

// trackPosition formats "track N of M", "track N", or "" when unknown.
func trackPosition(np state.NowPlaying) string {
	if np.TrackNumber == nil {
		return ""
	}
	if np.AlbumTrackCount == nil {
		return fmt.Sprintf("track %d", *np.TrackNumber)
	}
	return fmt.Sprintf("track %d of %d", *np.TrackNumber, *np.AlbumTrackCount)
}

func valueOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}
