// Package watcher drives the track transition loop: it polls the
// station's playback page, decides when a song actually started or
// ended, and synchronizes Last.fm's now playing marker and scrobble
// history.
package watcher

import (
	"context"
	"time"

	"github.com/jverhoeven/radioscrobble/internal/scraper"
	"github.com/jverhoeven/radioscrobble/internal/store"
	"github.com/jverhoeven/radioscrobble/pkg/lastfm"
	"github.com/rs/zerolog"
)

// TrackService is the slice of the Last.fm API the watcher needs.
// *lastfm.TrackService satisfies it.
type TrackService interface {
	Search(ctx context.Context, artist, title string) (*lastfm.Match, error)
	UpdateNowPlaying(ctx context.Context, artist, title string) error
	Scrobble(ctx context.Context, artist, title string, startedAt int64) error
}

// Config holds watcher configuration
type Config struct {
	PollInterval time.Duration // Cadence of the sample loop
	Renotify     bool          // Refresh now playing every tick while a track stays open
	Placeholders []string      // Labels meaning "no identifiable track"
}

// Watcher owns the open track session. It is the only mutator of the
// durable session state and runs each tick to completion, so no two
// ticks and no two remote calls for a tick ever overlap.
type Watcher struct {
	cfg     Config
	scraper scraper.Scraper
	tracks  TrackService
	store   *store.Store
	logger  zerolog.Logger

	now func() time.Time
}

// New creates a Watcher
func New(cfg Config, sc scraper.Scraper, tracks TrackService, st *store.Store, logger zerolog.Logger) *Watcher {
	return &Watcher{
		cfg:     cfg,
		scraper: sc,
		tracks:  tracks,
		store:   st,
		logger:  logger.With().Str("component", "watcher").Logger(),
		now:     time.Now,
	}
}

// Run starts the polling loop and blocks until the context is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info().
		Dur("interval", w.cfg.PollInterval).
		Msg("Starting watcher")

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	// Sample immediately on start
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick runs one poll cycle, logging failures instead of propagating
// them; at worst a tick is skipped or a scrobble is silently lost
func (w *Watcher) tick(ctx context.Context) {
	sample, err := w.scraper.Sample(ctx)
	if err != nil {
		// No sample delivered, so there is nothing to compare or
		// persist; the next tick proceeds normally.
		w.logger.Warn().Err(err).Msg("Failed to scrape sample")
		return
	}

	if err := w.Observe(ctx, sample); err != nil {
		w.logger.Error().Err(err).Msg("Failed to process sample")
	}
}

// Observe processes one raw sample against the stored state.
//
// Old-session work is finalized before any new-session field is
// written, so artist and title never cross-contaminate between tracks.
// Remote failures are logged and leave the session state untouched;
// only storage failures are returned.
func (w *Watcher) Observe(ctx context.Context, sample string) error {
	prev, _, err := w.store.Get(ctx, slotPrevSample)
	if err != nil {
		return err
	}

	histValue, _, err := w.store.Get(ctx, slotHistory)
	if err != nil {
		return err
	}
	hist := DecodeHistory(histValue)

	session, err := loadSession(ctx, w.store)
	if err != nil {
		return err
	}

	if !IsNewSample(sample, prev, hist, w.isDefault) {
		if w.cfg.Renotify && session != nil && !w.isDefault(session.Label) {
			w.announce(ctx, session)
		}
		// Persist unconditionally so the next tick's comparison is
		// correct even when nothing changed.
		return w.store.Set(ctx, slotPrevSample, sample)
	}

	w.logger.Info().Str("sample", sample).Msg("Scraped new text")

	// Close the previous session before anything about the new sample
	// is written.
	if !w.isDefault(prev) {
		if session != nil && session.Label == prev && !session.Scrobbled {
			w.scrobble(ctx, session, hist)
		}
		if err := clearSession(ctx, w.store); err != nil {
			return err
		}
		session = nil
	}

	// Open a session for a non-default sample
	if !w.isDefault(sample) {
		session = NewSession(sample, w.now())

		match, err := w.tracks.Search(ctx, session.Artist, session.Title)
		if err != nil {
			// Not-found is a nil match, not an error; a failed search
			// keeps the naive split.
			w.logger.Warn().Err(err).Str("label", sample).Msg("Track search failed")
		} else if match != nil {
			session.Resolve(match)
		}

		if err := saveSession(ctx, w.store, session); err != nil {
			return err
		}

		w.announce(ctx, session)
	}

	return w.store.Set(ctx, slotPrevSample, sample)
}

// Reset cancels the session: all durable state is cleared and the next
// sample starts fresh unconditionally. A remote result arriving after
// reset finds no session to update and is dropped.
func (w *Watcher) Reset(ctx context.Context) error {
	w.logger.Info().Msg("Resetting watcher state")
	return w.store.Clear(ctx)
}

// announce updates the now playing marker; failure is soft
func (w *Watcher) announce(ctx context.Context, s *Session) {
	if err := w.tracks.UpdateNowPlaying(ctx, s.Artist, s.Title); err != nil {
		w.logger.Warn().
			Err(err).
			Str("artist", s.Artist).
			Str("title", s.Title).
			Msg("Failed to update now playing")
		return
	}
	w.logger.Debug().
		Str("artist", s.Artist).
		Str("title", s.Title).
		Msg("Now playing updated")
}

// scrobble submits the closing session and, when the submission went
// out, remembers its label so a re-reported page cannot double-count it
func (w *Watcher) scrobble(ctx context.Context, s *Session, hist *History) {
	err := w.tracks.Scrobble(ctx, s.Artist, s.Title, s.StartedAt)
	accepted := err == nil
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str("artist", s.Artist).
			Str("title", s.Title).
			Msg("Failed to scrobble")
	} else {
		w.logger.Info().
			Str("artist", s.Artist).
			Str("title", s.Title).
			Msg("Scrobbled")
	}

	if _, err := w.store.AddJournal(ctx, store.JournalEntry{
		Artist:      s.Artist,
		Title:       s.Title,
		Label:       s.Label,
		StartedAt:   time.Unix(s.StartedAt, 0),
		SubmittedAt: w.now(),
		Accepted:    accepted,
	}); err != nil {
		w.logger.Error().Err(err).Msg("Failed to journal scrobble")
	}

	if !accepted {
		return
	}

	hist.Push(s.Label)
	encoded, err := hist.Encode()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to encode history")
		return
	}
	if err := w.store.Set(ctx, slotHistory, encoded); err != nil {
		w.logger.Error().Err(err).Msg("Failed to persist history")
	}
}

// isDefault reports whether a label belongs to the fixed default set.
// An unset or empty sample counts as default.
func (w *Watcher) isDefault(label string) bool {
	if label == "" {
		return true
	}
	for _, p := range w.cfg.Placeholders {
		if label == p {
			return true
		}
	}
	return false
}
