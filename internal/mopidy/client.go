package mopidy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// Method names used by piju. No other methods are needed.
const (
	MethodGetState        = "core.playback.get_state"
	MethodGetCurrentTrack = "core.playback.get_current_track"
	MethodGetVolume       = "core.mixer.get_volume"
	MethodGetImages       = "core.library.get_images"
	MethodNext            = "core.playback.next"
	MethodPrevious        = "core.playback.previous"
	MethodPause           = "core.playback.pause"
	MethodPlay            = "core.playback.play"
)

// ErrNilClient is returned by methods called on a nil *Client.
var ErrNilClient = errors.New("client is nil")

// Client talks to the Mopidy HTTP JSON-RPC API.
type Client struct {
	baseURL   *url.URL
	rpcURL    *url.URL
	http      *http.Client
	userAgent string

	nextID  atomic.Int64
	connErr atomic.Bool
}

const (
	rpcPath          = "mopidy/rpc"
	defaultUserAgent = "piju/0.1"
	requestTimeout   = 5 * time.Second
	maxImageBytes    = 8 << 20
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client for the server at serverURL, a base URL as
// produced by config.ServerURL.
func NewClient(serverURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		rpcURL:  base.JoinPath(rpcPath),
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ConnectionError reports whether the most recent request failed. The flag
// stays set until a later request succeeds.
func (c *Client) ConnectionError() bool {
	if c == nil {
		return true
	}
	return c.connErr.Load()
}

// Request performs a JSON-RPC call and returns the raw result. It returns nil
// when the call fails for any reason; the failure is logged and recorded in
// the connection-error flag. A successful call whose result is JSON null
// returns the literal "null".
func (c *Client) Request(ctx context.Context, method string, params any) json.RawMessage {
	var result json.RawMessage
	if err := c.Call(ctx, method, params, &result); err != nil {
		log.Printf("rpc %s failed: %v", method, err)
		return nil
	}
	return result
}

// Call performs a JSON-RPC call and decodes the result into dest. Transport
// and protocol failures set the connection-error flag; success clears it.
func (c *Client) Call(ctx context.Context, method string, params any, dest any) error {
	if c == nil {
		return ErrNilClient
	}
	err := c.call(ctx, method, params, dest)
	c.connErr.Store(err != nil)
	return err
}

func (c *Client) call(ctx context.Context, method string, params any, dest any) error {
	id := c.nextID.Add(1)
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("rpc %s returned status %d", method, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if envelope.Result == nil {
		return fmt.Errorf("malformed response: no result or error")
	}
	if envelope.ID != nil && *envelope.ID != id {
		return fmt.Errorf("response id %d does not match request id %d", *envelope.ID, id)
	}
	if dest == nil {
		return nil
	}
	if raw, ok := dest.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], envelope.Result...)
		return nil
	}
	if err := json.Unmarshal(envelope.Result, dest); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// PlaybackState returns "playing", "paused" or "stopped". The bool is false
// when the server could not be asked.
func (c *Client) PlaybackState(ctx context.Context) (string, bool) {
	var state *string
	if !c.decode(ctx, MethodGetState, nil, &state) || state == nil {
		return "", false
	}
	return *state, true
}

// CurrentTrack returns the loaded track, or nil when nothing is loaded or the
// server could not be asked.
func (c *Client) CurrentTrack(ctx context.Context) *Track {
	var track *Track
	if !c.decode(ctx, MethodGetCurrentTrack, nil, &track) {
		return nil
	}
	return track
}

// Volume returns the mixer volume as reported by the server, or nil when the
// server returned null or could not be asked.
func (c *Client) Volume(ctx context.Context) *float64 {
	var volume *float64
	if !c.decode(ctx, MethodGetVolume, nil, &volume) {
		return nil
	}
	return volume
}

// ImagesFor resolves a track URI to the images the server knows for it.
func (c *Client) ImagesFor(ctx context.Context, trackURI string) ([]Image, error) {
	var result map[string][]Image
	params := map[string]any{"uris": []string{trackURI}}
	if err := c.Call(ctx, MethodGetImages, params, &result); err != nil {
		return nil, err
	}
	return result[trackURI], nil
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	return c.Call(ctx, MethodNext, nil, nil)
}

// Previous returns to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	return c.Call(ctx, MethodPrevious, nil, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.Call(ctx, MethodPause, nil, nil)
}

// Play starts or resumes playback.
func (c *Client) Play(ctx context.Context) error {
	return c.Call(ctx, MethodPlay, nil, nil)
}

// FetchImage downloads image bytes. URIs without a host, such as Mopidy's
// "/images/..." paths, are joined onto the server base URL so a proxy base
// path is kept. It does not touch the connection-error flag.
func (c *Client) FetchImage(ctx context.Context, uri string) ([]byte, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	ref, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return nil, fmt.Errorf("parse image uri %q: %w", uri, err)
	}
	var target *url.URL
	if ref.Scheme == "" && ref.Host == "" {
		target = c.baseURL.JoinPath(ref.Path)
		target.RawQuery = ref.RawQuery
	} else {
		target = c.baseURL.ResolveReference(ref)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("unsupported image uri %q", uri)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image %s returned status %d", target.Path, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image %s exceeds %d bytes", target.Path, maxImageBytes)
	}
	return data, nil
}

// decode runs Call and logs failures; it reports whether dest was filled.
func (c *Client) decode(ctx context.Context, method string, params any, dest any) bool {
	if err := c.Call(ctx, method, params, dest); err != nil {
		log.Printf("rpc %s failed: %v", method, err)
		return false
	}
	return true
}

// parseBaseURL accepts only absolute http(s) URLs; host shorthand such as
// "localhost" is expanded by config.ServerURL before it gets here.
func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		return nil, fmt.Errorf("server url is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("server url %q is not an absolute http url", serverURL)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
