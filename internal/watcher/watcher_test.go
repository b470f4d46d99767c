package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jverhoeven/radioscrobble/internal/store"
	"github.com/jverhoeven/radioscrobble/pkg/lastfm"
	"github.com/rs/zerolog"
)

const placeholder = "KINK - No alternative"

// remoteCall records one outbound call made by the watcher
type remoteCall struct {
	Artist    string
	Title     string
	StartedAt int64
}

// fakeTracks is a scripted TrackService recording every call
type fakeTracks struct {
	match *lastfm.Match // Result for every search

	searchErr     error
	nowPlayingErr error
	scrobbleErr   error

	searches   []remoteCall
	nowPlaying []remoteCall
	scrobbles  []remoteCall
}

func (f *fakeTracks) Search(ctx context.Context, artist, title string) (*lastfm.Match, error) {
	f.searches = append(f.searches, remoteCall{Artist: artist, Title: title})
	return f.match, f.searchErr
}

func (f *fakeTracks) UpdateNowPlaying(ctx context.Context, artist, title string) error {
	f.nowPlaying = append(f.nowPlaying, remoteCall{Artist: artist, Title: title})
	return f.nowPlayingErr
}

func (f *fakeTracks) Scrobble(ctx context.Context, artist, title string, startedAt int64) error {
	f.scrobbles = append(f.scrobbles, remoteCall{Artist: artist, Title: title, StartedAt: startedAt})
	return f.scrobbleErr
}

// fakeScraper returns scripted samples
type fakeScraper struct {
	sample string
	err    error
}

func (f *fakeScraper) Sample(ctx context.Context) (string, error) {
	return f.sample, f.err
}

// testHarness wires a watcher with a scripted clock: each observed
// sample is one poll tick, one minute apart
type testHarness struct {
	w      *Watcher
	tracks *fakeTracks
	store  *store.Store
	clock  time.Time
}

func newTestHarness(t *testing.T, renotify bool) *testHarness {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	tracks := &fakeTracks{}
	h := &testHarness{
		tracks: tracks,
		store:  st,
		clock:  time.Unix(1700000000, 0),
	}

	h.w = New(Config{
		PollInterval: time.Minute,
		Renotify:     renotify,
		Placeholders: []string{placeholder},
	}, nil, tracks, st, zerolog.Nop())
	h.w.now = func() time.Time { return h.clock }

	return h
}

// observe feeds one sample and advances the clock one tick
func (h *testHarness) observe(t *testing.T, sample string) {
	t.Helper()
	if err := h.w.Observe(context.Background(), sample); err != nil {
		t.Fatalf("Observe(%q): %v", sample, err)
	}
	h.clock = h.clock.Add(time.Minute)
}

func TestWatcher_KinkSequence(t *testing.T) {
	h := newTestHarness(t, true)

	songStart := h.clock.Add(time.Minute).Unix() // tick at which the song first appears

	for _, sample := range []string{placeholder, "Artist A - Song A", "Artist A - Song A", placeholder} {
		h.observe(t, sample)
	}

	// Exactly one scrobble, stamped with the tick the song appeared
	if len(h.tracks.scrobbles) != 1 {
		t.Fatalf("scrobbles = %d, want 1", len(h.tracks.scrobbles))
	}
	got := h.tracks.scrobbles[0]
	if got.Artist != "Artist A" || got.Title != "Song A" {
		t.Errorf("scrobbled %q - %q", got.Artist, got.Title)
	}
	if got.StartedAt != songStart {
		t.Errorf("StartedAt = %d, want %d", got.StartedAt, songStart)
	}

	// Now playing announced on open and re-announced on the unchanged
	// tick; never for the placeholder
	if len(h.tracks.nowPlaying) != 2 {
		t.Fatalf("now playing calls = %d, want 2", len(h.tracks.nowPlaying))
	}
	for _, np := range h.tracks.nowPlaying {
		if np.Artist != "Artist A" || np.Title != "Song A" {
			t.Errorf("now playing %q - %q", np.Artist, np.Title)
		}
	}

	// Session closed, label remembered, previous sample persisted
	status, err := CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.Session != nil {
		t.Errorf("session still open: %+v", status.Session)
	}
	if status.PrevSample != placeholder {
		t.Errorf("prev sample = %q", status.PrevSample)
	}
	if !historyFrom(status.History).Contains("Artist A - Song A") {
		t.Error("scrobbled label missing from history")
	}
}

// historyFrom rebuilds a History from a status snapshot
func historyFrom(labels []string) *History {
	return &History{labels: labels}
}

func TestWatcher_ConsecutiveRepeatsScrobbleOnce(t *testing.T) {
	h := newTestHarness(t, false)

	for _, sample := range []string{"Artist A - Song A", "Artist A - Song A", "Artist A - Song A", placeholder} {
		h.observe(t, sample)
	}

	if len(h.tracks.scrobbles) != 1 {
		t.Errorf("scrobbles = %d, want 1", len(h.tracks.scrobbles))
	}
}

func TestWatcher_HistorySuppressesReReportedLabel(t *testing.T) {
	h := newTestHarness(t, false)

	h.observe(t, "Artist A - Song A")
	h.observe(t, "Artist B - Song B") // closes and scrobbles A

	if len(h.tracks.scrobbles) != 1 {
		t.Fatalf("scrobbles = %d, want 1", len(h.tracks.scrobbles))
	}

	// The page re-reports A even though B is playing; A is in history,
	// so nothing closes and nothing opens
	h.observe(t, "Artist A - Song A")

	if len(h.tracks.scrobbles) != 1 {
		t.Errorf("re-reported label caused a scrobble")
	}
	status, err := CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.Session == nil || status.Session.Label != "Artist B - Song B" {
		t.Errorf("open session = %+v, want Artist B - Song B", status.Session)
	}
}

func TestWatcher_EvictedLabelScrobblesAgain(t *testing.T) {
	h := newTestHarness(t, false)

	// A plays and is closed, then five more tracks play and close,
	// pushing A out of the history window
	h.observe(t, "Artist A - Song A")
	for i := 0; i < HistorySize; i++ {
		h.observe(t, fmt.Sprintf("Artist %d - Song %d", i, i))
	}
	h.observe(t, placeholder)

	// A returns hours later and closes again
	h.observe(t, "Artist A - Song A")
	h.observe(t, placeholder)

	var aScrobbles int
	for _, s := range h.tracks.scrobbles {
		if s.Artist == "Artist A" {
			aScrobbles++
		}
	}
	if aScrobbles != 2 {
		t.Errorf("Artist A scrobbled %d times, want 2", aScrobbles)
	}
}

func TestWatcher_NoMatchKeepsNaiveSplit(t *testing.T) {
	h := newTestHarness(t, false)
	h.tracks.match = nil // search finds nothing

	h.observe(t, "Artist A - Song A")

	status, err := CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.Session.Artist != "Artist A" || status.Session.Title != "Song A" {
		t.Errorf("session resolved to %q - %q", status.Session.Artist, status.Session.Title)
	}

	// The naive split is what gets scrobbled when the session closes
	h.observe(t, placeholder)
	if len(h.tracks.scrobbles) != 1 {
		t.Fatalf("scrobbles = %d, want 1", len(h.tracks.scrobbles))
	}
	if h.tracks.scrobbles[0].Artist != "Artist A" || h.tracks.scrobbles[0].Title != "Song A" {
		t.Errorf("scrobbled %q - %q", h.tracks.scrobbles[0].Artist, h.tracks.scrobbles[0].Title)
	}
}

func TestWatcher_SearchMatchResolvesNames(t *testing.T) {
	h := newTestHarness(t, false)
	h.tracks.match = &lastfm.Match{Artist: "Artist A", Name: "Song A (Album Version)"}

	h.observe(t, "artist a - song a")
	h.observe(t, placeholder)

	// Remote calls use the canonical names
	if np := h.tracks.nowPlaying[0]; np.Title != "Song A (Album Version)" {
		t.Errorf("now playing title = %q", np.Title)
	}
	if s := h.tracks.scrobbles[0]; s.Title != "Song A (Album Version)" {
		t.Errorf("scrobbled title = %q", s.Title)
	}

	// History and equality key on the raw label, never resolved names
	status, err := CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if !historyFrom(status.History).Contains("artist a - song a") {
		t.Error("raw label missing from history")
	}
}

func TestWatcher_RenotifyPolicy(t *testing.T) {
	tests := []struct {
		name           string
		renotify       bool
		wantNowPlaying int
	}{
		{name: "renotify refreshes every tick", renotify: true, wantNowPlaying: 3},
		{name: "single announce per track", renotify: false, wantNowPlaying: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t, tt.renotify)

			h.observe(t, "Artist A - Song A")
			h.observe(t, "Artist A - Song A")
			h.observe(t, "Artist A - Song A")

			if len(h.tracks.nowPlaying) != tt.wantNowPlaying {
				t.Errorf("now playing calls = %d, want %d", len(h.tracks.nowPlaying), tt.wantNowPlaying)
			}
		})
	}
}

func TestWatcher_FailedScrobbleNotRemembered(t *testing.T) {
	h := newTestHarness(t, false)
	h.tracks.scrobbleErr = fmt.Errorf("network down")

	h.observe(t, "Artist A - Song A")
	h.observe(t, placeholder)

	if len(h.tracks.scrobbles) != 1 {
		t.Fatalf("scrobble attempts = %d, want 1", len(h.tracks.scrobbles))
	}

	// A failed submission must not poison the dedup history
	status, err := CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if historyFrom(status.History).Contains("Artist A - Song A") {
		t.Error("failed scrobble pushed into history")
	}

	// The attempt is journaled as not accepted
	entries, err := h.store.RecentJournal(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentJournal: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(entries))
	}
	if entries[0].Accepted {
		t.Error("failed scrobble journaled as accepted")
	}
}

func TestWatcher_AcceptedScrobbleJournaled(t *testing.T) {
	h := newTestHarness(t, false)

	h.observe(t, "Artist A - Song A")
	h.observe(t, placeholder)

	entries, err := h.store.RecentJournal(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentJournal: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if !e.Accepted {
		t.Error("accepted scrobble journaled as failed")
	}
	if e.Label != "Artist A - Song A" {
		t.Errorf("journaled label = %q", e.Label)
	}
	if e.StartedAt.Unix() != 1700000000 {
		t.Errorf("journaled start = %d", e.StartedAt.Unix())
	}
}

func TestWatcher_RemoteFailuresDoNotAbortTick(t *testing.T) {
	h := newTestHarness(t, false)
	h.tracks.searchErr = fmt.Errorf("search down")
	h.tracks.nowPlayingErr = fmt.Errorf("now playing down")

	h.observe(t, "Artist A - Song A")

	// The session opened with the naive split and the sample was
	// persisted despite both remote failures
	status, err := CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.Session == nil {
		t.Fatal("session not opened")
	}
	if status.Session.Artist != "Artist A" || status.Session.Title != "Song A" {
		t.Errorf("session = %q - %q", status.Session.Artist, status.Session.Title)
	}
	if status.PrevSample != "Artist A - Song A" {
		t.Errorf("prev sample = %q", status.PrevSample)
	}
}

func TestWatcher_ResetStartsFresh(t *testing.T) {
	h := newTestHarness(t, false)

	h.observe(t, "Artist A - Song A")

	if err := h.w.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	status, err := CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.Session != nil || status.PrevSample != "" {
		t.Errorf("state survived reset: %+v", status)
	}

	// The same label opens a fresh session unconditionally, and the
	// abandoned session is not scrobbled
	h.observe(t, "Artist A - Song A")

	status, err = CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.Session == nil || status.Session.Label != "Artist A - Song A" {
		t.Errorf("session after reset = %+v", status.Session)
	}
	if len(h.tracks.scrobbles) != 0 {
		t.Errorf("reset session was scrobbled")
	}
}

func TestWatcher_PlaceholderNeverOpensOrScrobbles(t *testing.T) {
	h := newTestHarness(t, true)

	h.observe(t, placeholder)
	h.observe(t, placeholder)
	h.observe(t, "")

	if len(h.tracks.scrobbles) != 0 {
		t.Errorf("placeholder scrobbled")
	}
	if len(h.tracks.nowPlaying) != 0 {
		t.Errorf("placeholder announced as now playing")
	}
	status, err := CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.Session != nil {
		t.Errorf("placeholder opened a session")
	}
}

func TestWatcher_ScraperFailureSkipsTick(t *testing.T) {
	h := newTestHarness(t, false)

	h.observe(t, "Artist A - Song A")

	// Swap in a failing scraper and run a full tick
	h.w.scraper = &fakeScraper{err: fmt.Errorf("page unreachable")}
	h.w.tick(context.Background())

	// State is untouched: the session stays open and the previous
	// sample is unchanged
	status, err := CurrentStatus(context.Background(), h.store)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.Session == nil || status.Session.Label != "Artist A - Song A" {
		t.Errorf("session lost on scraper failure: %+v", status.Session)
	}
	if status.PrevSample != "Artist A - Song A" {
		t.Errorf("prev sample = %q", status.PrevSample)
	}
}
