// Package app wires piju together and owns the poll cycle.
//
// # Overview
//
// Run is the composition root: it loads configuration, points logging at a
// file (the terminal belongs to the UI), builds the Mopidy client, and starts
// the poller, the optional screen-blank manager and event listener, and
// finally the Bubble Tea UI, which blocks until the user quits or the
// context is cancelled.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read ~/.config/piju/config.toml
//	       ├─────> mopidy.NewClient()   JSON-RPC client
//	       ├─────> state.NewHandoff()   One-slot snapshot channel
//	       ├─────> poller.Run()         Background poll cycle
//	       ├─────> listener.Run()       Optional websocket nudges
//	       └─────> ui.Run()             Start TUI (blocks)
//
//	Poll cycle:
//	┌─────────────────────────────────────────┐
//	│ get_state, get_current_track,           │
//	│ get_volume                              │
//	│  ├─> artwork.Cache.Update()             │
//	│  ├─> state.Decode()                     │
//	│  ├─> handoff.Publish()  (blocks)        │
//	│  └─> blanker.SetState()                 │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// Cycles start on a fixed ticker (default one second). A cycle that runs
// longer than the interval is followed at once by the next; missed ticks are
// dropped, never queued. Poller.Nudge starts a cycle early and is used by the
// event listener and after playback controls.
//
// # Error Handling
//
// Startup errors (unreadable config, bad host, unknown artwork mode) are
// returned from Run. Everything after startup is recoverable: failed calls
// are logged, mark the snapshot as disconnected, and the next cycle tries
// again.
package app
