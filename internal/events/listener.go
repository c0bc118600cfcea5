// Package events listens to Mopidy's WebSocket event stream so the poller
// can refresh as soon as something changes instead of waiting for its next
// tick. Polling stays the source of truth; events only shorten the wait.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsPath           = "mopidy/ws"
	defaultRetryBase = 2 * time.Second
	maxBackoff       = 30 * time.Second
	handshakeTimeout = 5 * time.Second
)

// Event is a Mopidy core event notification.
type Event struct {
	Name string `json:"event"`
}

// refreshEvents lists events that change what the display shows.
var refreshEvents = map[string]bool{
	"playback_state_changed": true,
	"track_playback_started": true,
	"track_playback_paused":  true,
	"track_playback_resumed": true,
	"track_playback_ended":   true,
	"tracklist_changed":      true,
	"volume_changed":         true,
	"mute_changed":           true,
	"stream_title_changed":   true,
	"seeked":                 true,
}

// Listener maintains a WebSocket connection to Mopidy and calls Notify for
// every event that affects the display.
type Listener struct {
	url       string
	dialer    *websocket.Dialer
	retryBase time.Duration
	notify    func(Event)
}

// NewListener builds a Listener for the server at serverURL.
func NewListener(serverURL string, notify func(Event)) (*Listener, error) {
	wsURL, err := EndpointURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Listener{
		url:       wsURL,
		dialer:    &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		retryBase: defaultRetryBase,
		notify:    notify,
	}, nil
}

// EndpointURL returns the event stream URL for a server base URL.
func EndpointURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.JoinPath(wsPath).String(), nil
}

// Run connects and reads events until ctx is cancelled, reconnecting with
// exponential backoff after failures.
func (l *Listener) Run(ctx context.Context) {
	failures := 0
	for {
		connected, err := l.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			failures = 0
		}
		wait := calculateBackoff(failures, l.retryBase)
		failures++
		log.Printf("event stream lost: %v (retrying in %s)", err, wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session runs one connection. It reports whether the dial succeeded.
func (l *Listener) session(ctx context.Context) (bool, error) {
	conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", l.url, err)
	}
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.Name == "" {
			// JSON-RPC responses share the socket; they carry no event name.
			continue
		}
		if refreshEvents[ev.Name] && l.notify != nil {
			l.notify(ev)
		}
	}
}

// calculateBackoff doubles the base interval per consecutive failure, capped
// at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
