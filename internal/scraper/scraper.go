// Package scraper reads the "now playing" label from a station's
// playback page.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

// Scraper delivers one raw label per invocation
type Scraper interface {
	// Sample fetches the current label. It returns the configured
	// placeholder when the page shows no identifiable track.
	Sample(ctx context.Context) (string, error)
}

// ErrBusy is returned when a sample is requested while a previous fetch
// has not delivered its result yet. The pending fetch stays the only one
// in flight; the caller should skip this tick.
var ErrBusy = fmt.Errorf("scraper: previous sample still in flight")

// PageScraper scrapes the label from an HTTP playback page
type PageScraper struct {
	url         string
	host        string
	pattern     *regexp.Regexp
	placeholder string
	client      *http.Client
	inFlight    atomic.Bool
}

// NewPageScraper creates a PageScraper for the given playback page.
//
// pattern must contain one capture group holding the label. placeholder
// is returned when the pattern does not match the page.
func NewPageScraper(pageURL, pattern, placeholder string, client *http.Client) (*PageScraper, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("page url %q has no host", pageURL)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid label pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("label pattern %q has no capture group", pattern)
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &PageScraper{
		url:         pageURL,
		host:        u.Host,
		pattern:     re,
		placeholder: placeholder,
		client:      client,
	}, nil
}

// Sample fetches the playback page and extracts the label.
//
// Only one fetch runs at a time; overlapping calls get ErrBusy. A
// response whose final URL is not on the station's host is discarded as
// a wrong sender, not treated as a label.
func (p *PageScraper) Sample(ctx context.Context) (string, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer p.inFlight.Store(false)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	// Redirects can land anywhere; a label from another host is not a
	// delivery from the station.
	if resp.Request != nil && resp.Request.URL.Host != p.host {
		return "", fmt.Errorf("unexpected sender %q", resp.Request.URL.Host)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}

	match := p.pattern.FindSubmatch(body)
	if match == nil {
		return p.placeholder, nil
	}

	return strings.TrimSpace(string(match[1])), nil
}
