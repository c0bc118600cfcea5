package app

import (
	"context"
	"log"
	"time"

	"github.com/five82/piju/internal/artwork"
	"github.com/five82/piju/internal/mopidy"
	"github.com/five82/piju/internal/state"
)

const defaultPollInterval = time.Second

// Server is what the poller needs from the Mopidy client.
type Server interface {
	artwork.Source
	PlaybackState(ctx context.Context) (string, bool)
	CurrentTrack(ctx context.Context) *mopidy.Track
	Volume(ctx context.Context) *float64
	ConnectionError() bool
}

var _ Server = (*mopidy.Client)(nil)

// ScreenBlanker is told the playback state once per cycle.
type ScreenBlanker interface {
	SetState(state.PlaybackState)
}

// Poller assembles a snapshot from the server at a fixed cadence and hands
// it to the UI. It owns the artwork cache.
type Poller struct {
	server   Server
	cache    *artwork.Cache
	handoff  *state.Handoff
	blanker  ScreenBlanker
	interval time.Duration
	wake     chan struct{}
	now      func() time.Time
}

// NewPoller builds a Poller. blanker may be nil.
func NewPoller(server Server, cache *artwork.Cache, handoff *state.Handoff, blanker ScreenBlanker, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if cache == nil {
		cache = &artwork.Cache{}
	}
	return &Poller{
		server:   server,
		cache:    cache,
		handoff:  handoff,
		blanker:  blanker,
		interval: interval,
		wake:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Nudge asks for a refresh before the next tick. It never blocks.
func (p *Poller) Nudge() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. A cycle that overruns the interval is
// followed immediately by the next one; ticks are never queued up.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		snap := p.Poll(ctx)
		if ctx.Err() != nil {
			return
		}
		if err := p.handoff.Publish(ctx, snap); err != nil {
			return
		}
		if p.blanker != nil {
			p.blanker.SetState(snap.NowPlaying.PlaybackState)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.wake:
		}
	}
}

// Poll runs one cycle. RPC failures degrade the affected fields only.
func (p *Poller) Poll(ctx context.Context) state.Snapshot {
	stateValue, stateOK := p.server.PlaybackState(ctx)
	track := p.server.CurrentTrack(ctx)
	volume := p.server.Volume(ctx)

	trackURI := ""
	if track != nil {
		trackURI = track.URI
	}
	p.cache.Update(ctx, p.server, trackURI)

	np := state.Decode(state.Poll{
		State:   stateValue,
		StateOK: stateOK,
		Track:   track,
		Volume:  volume,
		Artwork: p.cache.Current(),
	})
	snap := state.Snapshot{
		NowPlaying:      np,
		ConnectionError: p.server.ConnectionError(),
		TakenAt:         p.now(),
	}
	if snap.ConnectionError {
		log.Printf("poll: server unreachable")
	}
	return snap
}
