package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestEndpointURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:6680":        "ws://localhost:6680/mopidy/ws",
		"https://proxy:6680/music":     "wss://proxy:6680/music/mopidy/ws",
		"http://localhost:6680/?x=1#y": "ws://localhost:6680/mopidy/ws",
	}
	for in, want := range cases {
		got, err := EndpointURL(in)
		if err != nil {
			t.Fatalf("EndpointURL(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("EndpointURL(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := EndpointURL("ftp://host"); err == nil {
		t.Fatalf("EndpointURL(ftp) returned nil error")
	}
}

func TestListener_NotifiesDisplayEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mopidy/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, msg := range []string{
			`{"jsonrpc":"2.0","id":1,"result":null}`,
			`{"event":"options_changed"}`,
			`not json`,
			`{"event":"track_playback_started","tl_track":{}}`,
			`{"event":"volume_changed","volume":30}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)

	got := make(chan string, 8)
	l, err := NewListener(server.URL, func(ev Event) { got <- ev.Name })
	if err != nil {
		t.Fatalf("NewListener returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(stopped)
	}()

	for _, want := range []string{"track_playback_started", "volume_changed"} {
		select {
		case name := <-got:
			if name != want {
				t.Fatalf("event = %q, want %q", name, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
