package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// TrackService provides track operations for the Last.fm API.
type TrackService struct {
	client *Client
}

// searchResponse is the JSON response from track.search. Nested string
// fields arrive as objects with "#text" payloads in the JSON rendering,
// except inside trackmatches where they are plain strings.
type searchResponse struct {
	Results struct {
		TrackMatches struct {
			Track []struct {
				Name   string `json:"name"`
				Artist string `json:"artist"`
			} `json:"track"`
		} `json:"trackmatches"`
	} `json:"results"`
}

// nowPlayingResponse is the JSON response from track.updateNowPlaying.
// Only the presence of the nowplaying object matters.
type nowPlayingResponse struct {
	NowPlaying json.RawMessage `json:"nowplaying"`
}

// Search looks up a track and returns the single best match.
//
// This is an unauthenticated call. A nil match with a nil error means the
// service found nothing; that is not an error condition.
//
// Example:
//
//	match, err := client.Track().Search(ctx, "The Beatles", "Yesterday")
//	if err != nil {
//	    log.Printf("search failed: %v", err)
//	} else if match == nil {
//	    log.Printf("no match")
//	}
func (s *TrackService) Search(ctx context.Context, artist, title string) (*Match, error) {
	params := map[string]string{
		"artist": artist,
		"track":  title,
		"limit":  "1",
	}

	resp, err := s.client.call(ctx, "track.search", params, callOpts{verify: true})
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse search response: %w", err)
	}

	matches := result.Results.TrackMatches.Track
	if len(matches) == 0 {
		return nil, nil
	}

	return &Match{
		Artist: matches[0].Artist,
		Name:   matches[0].Name,
	}, nil
}

// UpdateNowPlaying updates the "now playing" status on Last.fm.
//
// This should be called when a track starts playing. It does not count
// as a scrobble and does not affect play counts. Success is signaled by
// the nowplaying object in the response; a well-formed response without
// it returns ErrNotAcknowledged.
//
// Requires authentication (session key must be set).
func (s *TrackService) UpdateNowPlaying(ctx context.Context, artist, title string) error {
	params := map[string]string{
		"artist": artist,
		"track":  title,
	}

	resp, err := s.client.call(ctx, "track.updateNowPlaying", params, callOpts{post: true, session: true, verify: true})
	if err != nil {
		return err
	}

	var result nowPlayingResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("lastfm: failed to parse now playing response: %w", err)
	}
	if len(result.NowPlaying) == 0 {
		return ErrNotAcknowledged
	}

	return nil
}

// Scrobble submits a single play to Last.fm.
//
// startedAt is the Unix timestamp (UTC seconds) at which the track
// started playing. The submission carries chosenByUser=0: the listener
// did not pick the track, the station did.
//
// The call is best-effort. Any HTTP-level success counts as submitted;
// the response body is not inspected for service-side acceptance.
//
// Requires authentication (session key must be set).
func (s *TrackService) Scrobble(ctx context.Context, artist, title string, startedAt int64) error {
	params := map[string]string{
		"artist":       artist,
		"track":        title,
		"timestamp":    strconv.FormatInt(startedAt, 10),
		"chosenByUser": "0",
	}

	_, err := s.client.call(ctx, "track.scrobble", params, callOpts{post: true, session: true})
	return err
}
