package state

import (
	"math"
	"time"

	"github.com/five82/piju/internal/artwork"
	"github.com/five82/piju/internal/mopidy"
)

// PlaybackState is the server's transport state.
type PlaybackState string

const (
	Playing PlaybackState = "playing"
	Paused  PlaybackState = "paused"
	Stopped PlaybackState = "stopped"
)

// DefaultVolume is reported when the server has no mixer volume.
const DefaultVolume = 50

// ParsePlaybackState maps a server value onto a PlaybackState. Unknown or
// missing values are treated as stopped.
func ParsePlaybackState(value string, ok bool) PlaybackState {
	if !ok {
		return Stopped
	}
	switch PlaybackState(value) {
	case Playing, Paused, Stopped:
		return PlaybackState(value)
	default:
		return Stopped
	}
}

// NowPlaying is one immutable view of the server at a poll instant. Nil
// pointers mean the value is unknown. When HasTrack is false every
// track-specific field is nil.
type NowPlaying struct {
	ArtistName      *string
	HasTrack        bool
	TrackName       *string
	TrackNumber     *int
	AlbumName       *string
	AlbumTrackCount *int
	PlaybackState   PlaybackState
	Volume          int
	ArtworkURI      *string
	Artwork         []byte
	ArtworkWidth    *int
	ArtworkHeight   *int
}

// HasArtwork reports whether image bytes and dimensions are present.
func (n NowPlaying) HasArtwork() bool {
	return len(n.Artwork) > 0 && n.ArtworkWidth != nil && n.ArtworkHeight != nil
}

// Poll is the raw material of one poll cycle, as returned by the server.
type Poll struct {
	State   string
	StateOK bool
	Track   *mopidy.Track
	Volume  *float64
	Artwork artwork.Artwork
}

// Decode turns raw server responses into a NowPlaying. It is the only place
// that decides what is absent and what gets a default.
func Decode(p Poll) NowPlaying {
	np := NowPlaying{
		PlaybackState: ParsePlaybackState(p.State, p.StateOK),
		Volume:        normalizeVolume(p.Volume),
	}
	track := p.Track
	if track == nil {
		return np
	}

	np.HasTrack = true
	np.TrackName = nonEmpty(track.Name)
	np.TrackNumber = copyInt(track.TrackNo)
	if artist := track.FirstArtist(); artist != nil {
		np.ArtistName = nonEmpty(artist.Name)
	}
	if track.Album != nil {
		np.AlbumName = nonEmpty(track.Album.Name)
		np.AlbumTrackCount = copyInt(track.Album.NumTracks)
	}

	// Artwork is only trusted when the cache describes this very track.
	art := p.Artwork
	if art.TrackURI != "" && art.TrackURI == track.URI {
		uri := art.TrackURI
		np.ArtworkURI = &uri
		if art.HasImage() {
			w, h := art.Width, art.Height
			np.Artwork = art.Data
			np.ArtworkWidth = &w
			np.ArtworkHeight = &h
		}
	}
	return np
}

func normalizeVolume(v *float64) int {
	if v == nil || math.IsNaN(*v) {
		return DefaultVolume
	}
	rounded := math.Round(*v)
	switch {
	case rounded < 0:
		return 0
	case rounded > 100:
		return 100
	default:
		return int(rounded)
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

// Snapshot is what the poller hands to the renderer.
type Snapshot struct {
	NowPlaying      NowPlaying
	ConnectionError bool
	TakenAt         time.Time
}
