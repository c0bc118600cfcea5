// Package ui is the piju terminal display, built on Bubble Tea.
//
// The model takes snapshots from a state.Handoff one at a time: the command
// that waits on the handoff is re-armed only after Update has applied the
// snapshot it delivered. Playback controls (next, previous, play/pause) run
// as commands so a slow server never blocks key handling.
//
// Artwork is either drawn with the kitty graphics protocol or shown as a
// framed placeholder with the image's natural dimensions, depending on the
// configured artwork mode. Theme and artwork visibility are saved to the
// preferences file when changed from the keyboard.
package ui
