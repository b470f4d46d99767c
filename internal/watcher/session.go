package watcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jverhoeven/radioscrobble/internal/store"
	"github.com/jverhoeven/radioscrobble/pkg/lastfm"
)

// Slot names for the durable state shared across ticks
const (
	slotPrevSample       = "prev_sample"
	slotSessionLabel     = "session_label"
	slotSessionArtist    = "session_artist"
	slotSessionTitle     = "session_title"
	slotSessionStart     = "session_start"
	slotSessionScrobbled = "session_scrobbled"
	slotHistory          = "history"
)

// labelSeparator splits a raw "Artist - Title" label
const labelSeparator = " - "

// Session is the working model of one track's play interval.
//
// Label is the raw sample that opened the session and is what every
// future sample is compared against; Artist and Title start as the naive
// split of the label and may be replaced once by a search match.
type Session struct {
	Label     string
	Artist    string
	Title     string
	StartedAt int64 // Unix seconds
	Scrobbled bool
}

// NewSession opens a session for a freshly scraped label
func NewSession(label string, startedAt time.Time) *Session {
	s := &Session{
		Label:     label,
		StartedAt: startedAt.Unix(),
	}

	parts := strings.SplitN(label, labelSeparator, 2)
	s.Artist = parts[0]
	if len(parts) == 2 {
		s.Title = parts[1]
	}

	return s
}

// Resolve replaces the naive split with a search match's canonical
// names. Resolution is terminal: it happens at most once, and a
// no-match session keeps the naive split for its whole lifetime.
func (s *Session) Resolve(match *lastfm.Match) {
	if match == nil {
		return
	}
	s.Artist = match.Artist
	s.Title = match.Name
}

// loadSession reads the open session from the store, or nil if none
func loadSession(ctx context.Context, st *store.Store) (*Session, error) {
	label, ok, err := st.Get(ctx, slotSessionLabel)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	s := &Session{Label: label}

	if s.Artist, _, err = st.Get(ctx, slotSessionArtist); err != nil {
		return nil, err
	}
	if s.Title, _, err = st.Get(ctx, slotSessionTitle); err != nil {
		return nil, err
	}

	start, _, err := st.Get(ctx, slotSessionStart)
	if err != nil {
		return nil, err
	}
	if s.StartedAt, err = strconv.ParseInt(start, 10, 64); err != nil {
		return nil, fmt.Errorf("corrupt session start %q: %w", start, err)
	}

	scrobbled, _, err := st.Get(ctx, slotSessionScrobbled)
	if err != nil {
		return nil, err
	}
	s.Scrobbled = scrobbled == "1"

	return s, nil
}

// saveSession writes all session slots in one transaction
func saveSession(ctx context.Context, st *store.Store, s *Session) error {
	scrobbled := "0"
	if s.Scrobbled {
		scrobbled = "1"
	}

	return st.SetAll(ctx, map[string]string{
		slotSessionLabel:     s.Label,
		slotSessionArtist:    s.Artist,
		slotSessionTitle:     s.Title,
		slotSessionStart:     strconv.FormatInt(s.StartedAt, 10),
		slotSessionScrobbled: scrobbled,
	})
}

// clearSession discards the session slots; no closed session persists
func clearSession(ctx context.Context, st *store.Store) error {
	return st.Delete(ctx,
		slotSessionLabel,
		slotSessionArtist,
		slotSessionTitle,
		slotSessionStart,
		slotSessionScrobbled,
	)
}
