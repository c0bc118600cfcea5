// Package config loads piju's configuration and normalizes the Mopidy
// server address.
//
// # Overview
//
// piju reads ~/.config/piju/config.toml when it exists. A missing file is
// not an error: every field has a default so that a plain `piju` run
// against a Mopidy server on localhost works without configuration.
//
// # TOML Format
//
//	host = "mopidy.local"          # scheme and port optional
//	poll_interval = 1              # seconds
//	request_timeout = 5            # seconds
//	manage_screenblanker = false   # inhibit the screen saver while playing
//	events = false                 # wake the poller from Mopidy's event stream
//	artwork = "text"               # "kitty", "text" or "off"
//	log_file = "~/.cache/piju.log"
//
// # Server URL
//
// ServerURL turns the host value into a base URL. The rules follow what a
// user typing a host name expects:
//
//   - "localhost" becomes "http://localhost:6680"
//   - "mopidy:6681" becomes "http://mopidy:6681"
//   - "https://proxy.example/music?x=1" becomes "https://proxy.example:6680/music"
//
// The base path survives so that Mopidy can be reached through a reverse
// proxy; query, fragment and path parameters are dropped.
//
// # Overrides
//
// Command-line flags are applied by cmd/piju after Load. Callers that change
// Host or Artwork must call Finalize again so ServerURL is re-derived and
// the artwork mode re-validated.
package config
