package watcher

import (
	"context"

	"github.com/jverhoeven/radioscrobble/internal/store"
)

// Status is a read-only snapshot of the durable watcher state
type Status struct {
	Session    *Session // Open session, nil if none
	PrevSample string   // Label seen on the last tick
	History    []string // Recently scrobbled labels, oldest first
}

// CurrentStatus reads the watcher state without mutating it, for the
// status command
func CurrentStatus(ctx context.Context, st *store.Store) (*Status, error) {
	session, err := loadSession(ctx, st)
	if err != nil {
		return nil, err
	}

	prev, _, err := st.Get(ctx, slotPrevSample)
	if err != nil {
		return nil, err
	}

	histValue, _, err := st.Get(ctx, slotHistory)
	if err != nil {
		return nil, err
	}

	return &Status{
		Session:    session,
		PrevSample: prev,
		History:    DecodeHistory(histValue).Labels(),
	}, nil
}
