package state

import "context"

// Handoff carries snapshots from the poller to the renderer through a single
// slot. Publish blocks while the slot is occupied, so snapshots arrive in the
// order they were produced and at most one waits for the consumer.
type Handoff struct {
	ch chan Snapshot
}

// NewHandoff returns an empty Handoff.
func NewHandoff() *Handoff {
	return &Handoff{ch: make(chan Snapshot, 1)}
}

// Publish places snap in the slot, waiting until the consumer has taken the
// previous one or ctx is done.
func (h *Handoff) Publish(ctx context.Context, snap Snapshot) error {
	select {
	case h.ch <- snap:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next waits for the next snapshot.
func (h *Handoff) Next(ctx context.Context) (Snapshot, error) {
	select {
	case snap := <-h.ch:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}
