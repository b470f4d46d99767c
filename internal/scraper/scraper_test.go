package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const testPattern = `class="playing-now">([^<]+)<`

func TestPageScraper_Sample(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		want       string
		wantErr    bool
	}{
		{
			name:       "label extracted",
			body:       `<html><div class="playing-now">Artist A - Song A</div></html>`,
			statusCode: http.StatusOK,
			want:       "Artist A - Song A",
		},
		{
			name:       "surrounding whitespace trimmed",
			body:       `<div class="playing-now">  Artist A - Song A </div>`,
			statusCode: http.StatusOK,
			want:       "Artist A - Song A",
		},
		{
			name:       "no match yields the placeholder",
			body:       `<html><p>stream offline</p></html>`,
			statusCode: http.StatusOK,
			want:       "KINK - No alternative",
		},
		{
			name:       "server error",
			body:       "oops",
			statusCode: http.StatusInternalServerError,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			sc, err := NewPageScraper(server.URL, testPattern, "KINK - No alternative", server.Client())
			if err != nil {
				t.Fatalf("NewPageScraper: %v", err)
			}

			got, err := sc.Sample(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Sample: %v", err)
			}
			if got != tt.want {
				t.Errorf("Sample = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageScraper_RejectsWrongSender(t *testing.T) {
	// A second server on a different host:port stands in for a page
	// that redirects away from the station
	elsewhere := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div class="playing-now">Imposter - Song</div>`))
	}))
	defer elsewhere.Close()

	station := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, elsewhere.URL, http.StatusFound)
	}))
	defer station.Close()

	sc, err := NewPageScraper(station.URL, testPattern, "", station.Client())
	if err != nil {
		t.Fatalf("NewPageScraper: %v", err)
	}

	if _, err := sc.Sample(context.Background()); err == nil {
		t.Error("label from a foreign host was accepted")
	}
}

func TestPageScraper_SuppressesOverlappingFetch(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`<div class="playing-now">Artist A - Song A</div>`))
	}))
	defer server.Close()

	sc, err := NewPageScraper(server.URL, testPattern, "", server.Client())
	if err != nil {
		t.Fatalf("NewPageScraper: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := sc.Sample(context.Background()); err != nil {
			t.Errorf("first Sample: %v", err)
		}
	}()

	// Give the first fetch time to reach the server, then try again
	// while it is blocked
	time.Sleep(50 * time.Millisecond)
	if _, err := sc.Sample(context.Background()); err != ErrBusy {
		t.Errorf("overlapping Sample err = %v, want ErrBusy", err)
	}

	close(release)
	wg.Wait()

	// Once the pending fetch delivered, sampling works again
	if _, err := sc.Sample(context.Background()); err != nil {
		t.Errorf("Sample after release: %v", err)
	}
}

func TestNewPageScraper_Validation(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		pattern string
	}{
		{name: "missing host", url: "/player", pattern: testPattern},
		{name: "bad pattern", url: "https://kink.nl/player", pattern: `([invalid`},
		{name: "no capture group", url: "https://kink.nl/player", pattern: `playing-now`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPageScraper(tt.url, tt.pattern, "", nil); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
