package mopidy

import (
	"encoding/json"
	"fmt"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is a JSON-RPC error object returned by the server.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Track mirrors Mopidy's Track model. Every field except URI may be missing.
type Track struct {
	URI     string   `json:"uri"`
	Name    *string  `json:"name"`
	Artists []Artist `json:"artists"`
	Album   *Album   `json:"album"`
	TrackNo *int     `json:"track_no"`
	Length  *int     `json:"length"`
}

// Artist mirrors Mopidy's Artist model.
type Artist struct {
	URI  string  `json:"uri"`
	Name *string `json:"name"`
}

// Album mirrors Mopidy's Album model.
type Album struct {
	URI       string   `json:"uri"`
	Name      *string  `json:"name"`
	NumTracks *int     `json:"num_tracks"`
	Artists   []Artist `json:"artists"`
}

// Image mirrors Mopidy's Image model returned by core.library.get_images.
type Image struct {
	URI    string `json:"uri"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

// Area returns the advertised pixel area, or zero when unknown.
func (i Image) Area() int {
	if i.Width == nil || i.Height == nil {
		return 0
	}
	return *i.Width * *i.Height
}

// FirstArtist returns the first listed artist, or nil.
func (t *Track) FirstArtist() *Artist {
	if t == nil || len(t.Artists) == 0 {
		return nil
	}
	return &t.Artists[0]
}
