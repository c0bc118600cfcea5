// Package mopidy provides a JSON-RPC client for the Mopidy music server.
//
// # Overview
//
// piju only needs a handful of Mopidy core methods: three queries that
// describe what is playing, one that resolves a track to artwork, and four
// fire-and-forget playback controls. This package wraps exactly those and is
// not a general JSON-RPC framework.
//
// # Requests
//
// Every call is a JSON-RPC 2.0 request POSTed to <base>/mopidy/rpc:
//
//	{"jsonrpc": "2.0", "id": 7, "method": "core.playback.get_state"}
//
// Request ids increase monotonically per client. Params are omitted when a
// method takes none.
//
// # Connection Error Flag
//
// The client keeps a sticky connection-error flag. Any transport failure
// (unreachable host, timeout, non-2xx status) or protocol failure (error
// envelope, missing result, undecodable body, mismatched id) sets it; the
// next successful call clears it. The UI reads the flag to show a
// disconnected indicator.
//
// Request never returns an error. It logs the failure and returns nil so the
// poller can treat the value as unknown and carry on. Call returns the error
// for callers that want it.
//
// # Artwork
//
// ImagesFor calls core.library.get_images for one track URI. FetchImage
// downloads the bytes; Mopidy usually answers with server-relative URIs such
// as /images/abc.jpg, which are resolved against the base URL. Image
// download failures are artwork failures and leave the connection flag
// alone.
//
// # Usage Example
//
//	client, err := mopidy.NewClient("http://localhost:6680", mopidy.WithTimeout(5*time.Second))
//	if err != nil {
//		return err
//	}
//	state, ok := client.PlaybackState(ctx)
//	track := client.CurrentTrack(ctx)
//	if client.ConnectionError() {
//		log.Printf("mopidy unreachable")
//	}
package mopidy
