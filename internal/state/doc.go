// Package state defines the now-playing snapshot and the handoff that moves
// it from the poller to the UI.
//
// # Overview
//
// The poller produces one NowPlaying per cycle. Decode is the single place
// that maps raw Mopidy responses onto it, so the rules for absent and
// default values live here and nowhere else:
//
//   - no current track: HasTrack is false and every track field is nil
//   - missing name, artist, track number or album: that field is nil
//   - missing or null volume: DefaultVolume (50)
//   - any other volume: rounded and clamped to 0..100
//   - unknown or unavailable playback state: Stopped
//   - artwork: only taken from a cache entry that belongs to the current track
//
// # Handoff
//
//	Producer (poller)               Consumer (UI)
//	┌──────────────────┐           ┌──────────────────┐
//	│ Decode(poll)     │           │                  │
//	│      ↓           │  1 slot   │                  │
//	│ h.Publish(snap)  │──────────→│ h.Next()         │
//	│      ↓           │           │      ↓           │
//	│ wait for tick    │           │ apply, re-arm    │
//	└──────────────────┘           └──────────────────┘
//
// Handoff is a channel with capacity one. Publish blocks while the slot is
// full and returns early when its context is cancelled. The UI only asks
// for the next snapshot after it has finished applying the current one, so
// updates are applied one at a time and in production order.
//
// # Immutability
//
// A Snapshot is passed by value. Its pointer fields point at copies owned by
// the snapshot, and the artwork bytes are never mutated after the cache
// stores them, so nothing in a snapshot is shared mutable state.
package state
