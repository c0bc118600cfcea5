package mopidy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/piju/internal/mopidy/mopidytest"
)

func TestNewClient_RPCEndpointKeepsBasePath(t *testing.T) {
	c, err := NewClient("http://proxy:6680/music?x=1#frag")
	require.NoError(t, err)
	require.Equal(t, "http://proxy:6680/music/mopidy/rpc", c.rpcURL.String())
	require.Equal(t, "http://proxy:6680/music", c.baseURL.String())

	_, err = NewClient("   ")
	require.Error(t, err)
}

func TestNewClient_RejectsHostShorthand(t *testing.T) {
	for _, in := range []string{"localhost", "mopidy:6680", "ftp://mopidy", "http://"} {
		_, err := NewClient(in)
		require.Error(t, err, "NewClient(%q)", in)
	}
}

func TestClient_FetchImageKeepsBasePath(t *testing.T) {
	png := mopidytest.PNG(2, 2)
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.RequestURI())
		mu.Unlock()
		if r.URL.Path != "/music/images/a.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(png)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL + "/music")
	require.NoError(t, err)

	data, err := c.FetchImage(context.Background(), "/images/a.png")
	require.NoError(t, err)
	require.Equal(t, png, data)

	_, err = c.FetchImage(context.Background(), "images/a.png?v=2")
	require.NoError(t, err)

	_, err = c.FetchImage(context.Background(), server.URL+"/elsewhere.png")
	require.Error(t, err, "absolute URIs are used as given")

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"/music/images/a.png", "/music/images/a.png?v=2", "/elsewhere.png"}, paths)
}

func TestClient_SendsJSONRPCEnvelope(t *testing.T) {
	t.Parallel()

	var got map[string]any
	var gotContentType, gotUserAgent, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"tl":1}}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	result := c.Request(context.Background(), MethodGetImages, map[string]any{"uris": []string{"local:track:a"}})
	require.JSONEq(t, `{"tl":1}`, string(result))
	require.Equal(t, "/mopidy/rpc", gotPath)
	require.Equal(t, "application/json", gotContentType)
	require.True(t, strings.HasPrefix(gotUserAgent, "piju/"))
	require.Equal(t, "2.0", got["jsonrpc"])
	require.Equal(t, MethodGetImages, got["method"])
	require.EqualValues(t, 1, got["id"])
	require.Contains(t, got, "params")
}

func TestClient_RequestIDsIncrease(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var ids []int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		ids = append(ids, req.ID)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": nil})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NotNil(t, c.Request(context.Background(), MethodNext, nil))
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int64{1, 2, 3}, ids)
}

func TestClient_OmitsParamsWhenNil(t *testing.T) {
	t.Parallel()

	var raw map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"playing"}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)
	state, ok := c.PlaybackState(context.Background())
	require.True(t, ok)
	require.Equal(t, "playing", state)
	require.NotContains(t, raw, "params")
}

func TestClient_NullResultIsNotAFailure(t *testing.T) {
	srv := mopidytest.NewServer()
	t.Cleanup(srv.Close)
	srv.SetResult(MethodGetCurrentTrack, nil)
	srv.SetResult(MethodGetVolume, nil)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	ctx := context.Background()
	require.Equal(t, json.RawMessage("null"), c.Request(ctx, MethodGetCurrentTrack, nil))
	require.Nil(t, c.CurrentTrack(ctx))
	require.Nil(t, c.Volume(ctx))
	require.False(t, c.ConnectionError())
}

func TestClient_DecodesTrack(t *testing.T) {
	srv := mopidytest.NewServer()
	t.Cleanup(srv.Close)
	srv.SetResult(MethodGetCurrentTrack, map[string]any{
		"__model__": "Track",
		"uri":       "local:track:a",
		"name":      "Song A",
		"artists":   []map[string]any{{"name": "Artist X"}, {"name": "Artist Y"}},
		"album":     map[string]any{"name": "Album", "num_tracks": 10},
		"track_no":  3,
	})
	srv.SetResult(MethodGetVolume, 75)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	track := c.CurrentTrack(context.Background())
	require.NotNil(t, track)
	require.Equal(t, "local:track:a", track.URI)
	require.Equal(t, "Song A", *track.Name)
	require.Equal(t, "Artist X", *track.FirstArtist().Name)
	require.Equal(t, 10, *track.Album.NumTracks)
	require.Equal(t, 3, *track.TrackNo)

	volume := c.Volume(context.Background())
	require.NotNil(t, volume)
	require.InDelta(t, 75, *volume, 0)
}

func TestClient_ConnectionErrorIsStickyUntilSuccess(t *testing.T) {
	var slow atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slow.Load() {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":2,"result":"paused"}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	require.False(t, c.ConnectionError())

	slow.Store(true)
	require.Nil(t, c.Request(context.Background(), MethodGetState, nil))
	require.True(t, c.ConnectionError(), "flag should be set after a timeout")

	slow.Store(false)
	require.NotNil(t, c.Request(context.Background(), MethodGetState, nil))
	require.False(t, c.ConnectionError(), "flag should clear after a success")
}

func TestClient_FailureModesSetConnectionError(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "http status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusInternalServerError)
			},
			wantErr: "returned status 500",
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not-json"))
			},
			wantErr: "decode response",
		},
		{
			name: "error envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`))
			},
			wantErr: "Method not found",
		},
		{
			name: "neither result nor error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1}`))
			},
			wantErr: "malformed response",
		},
		{
			name: "mismatched id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":99,"result":1}`))
			},
			wantErr: "does not match",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)

			c, err := NewClient(server.URL)
			require.NoError(t, err)

			err = c.Call(context.Background(), MethodGetVolume, nil, nil)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
			require.True(t, c.ConnectionError())
			require.Nil(t, c.Request(context.Background(), MethodGetVolume, nil))
		})
	}
}

func TestClient_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClient(addr, WithTimeout(200*time.Millisecond))
	require.NoError(t, err)
	_, ok := c.PlaybackState(context.Background())
	require.False(t, ok)
	require.True(t, c.ConnectionError())
}

func TestClient_ImagesForAndFetchImage(t *testing.T) {
	srv := mopidytest.NewServer()
	t.Cleanup(srv.Close)
	png := mopidytest.PNG(4, 2)
	srv.SetImage("/images/a.png", png)
	srv.SetResult(MethodGetImages, mopidytest.Images("local:track:a", "/images/a.png"))

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	ctx := context.Background()
	images, err := c.ImagesFor(ctx, "local:track:a")
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.Equal(t, "/images/a.png", images[0].URI)

	data, err := c.FetchImage(ctx, images[0].URI)
	require.NoError(t, err)
	require.Equal(t, png, data)
	require.Equal(t, 1, srv.Fetches("/images/a.png"))

	_, err = c.FetchImage(ctx, "/images/missing.png")
	require.Error(t, err)
	require.False(t, c.ConnectionError(), "image failures must not mark the connection down")

	_, err = c.FetchImage(ctx, "file:///etc/passwd")
	require.Error(t, err)
}

func TestClient_ControlMethods(t *testing.T) {
	srv := mopidytest.NewServer()
	t.Cleanup(srv.Close)
	for _, m := range []string{MethodNext, MethodPrevious, MethodPause, MethodPlay} {
		srv.SetResult(m, nil)
	}

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Next(ctx))
	require.NoError(t, c.Previous(ctx))
	require.NoError(t, c.Pause(ctx))
	require.NoError(t, c.Play(ctx))
	for _, m := range []string{MethodNext, MethodPrevious, MethodPause, MethodPlay} {
		require.Equal(t, 1, srv.Calls(m), m)
	}
}

func TestClient_NilReceiver(t *testing.T) {
	var c *Client
	require.ErrorIs(t, c.Call(context.Background(), MethodPlay, nil, nil), ErrNilClient)
	require.True(t, c.ConnectionError())
	_, err := c.FetchImage(context.Background(), "/x")
	require.ErrorIs(t, err, ErrNilClient)
}
