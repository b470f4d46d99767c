// Package lastfm provides a client library for the Last.fm API 2.0.
//
// # Overview
//
// This package implements a Go client for the Last.fm API, focusing on
// authentication, track search, now playing updates and scrobbling. All
// responses use the JSON rendering of the API (format=json).
//
// # Installation
//
//	go get github.com/jverhoeven/radioscrobble/pkg/lastfm
//
// # Quick Start
//
// First, create a client with your API credentials:
//
//	import "github.com/jverhoeven/radioscrobble/pkg/lastfm"
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:    "your-api-key",
//	    APISecret: "your-api-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Authentication
//
// Last.fm uses a token-based authentication flow:
//
//  1. Get a token from Last.fm
//  2. Direct the user to authorize the token
//  3. Exchange the token for a session key
//  4. Store and reuse the session key
//
// Example:
//
//	// Step 1: Get token
//	token, err := client.Auth().GetToken(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Step 2: User authorizes
//	fmt.Println("Please visit:", client.Auth().GetAuthURL(token.Token))
//	fmt.Print("Press enter after authorizing...")
//	fmt.Scanln()
//
//	// Step 3: Get session
//	session, err := client.Auth().GetSession(ctx, token.Token)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Step 4: Save and use session key
//	client.SetSessionKey(session.Key)
//	// Store session.Key for future use
//
// # Track Operations
//
// Once authenticated, you can update the now playing status and scrobble:
//
//	// Resolve canonical names for a noisy label
//	match, err := client.Track().Search(ctx, "the beatles", "yesterday")
//
//	// Update now playing
//	err = client.Track().UpdateNowPlaying(ctx, "The Beatles", "Yesterday")
//
//	// Scrobble a play that started at a known time
//	err = client.Track().Scrobble(ctx, "The Beatles", "Yesterday", startedAt)
//
// Search is unauthenticated and returns a nil match (with a nil error)
// when the service finds nothing.
//
// # Error Handling
//
// The package provides structured errors carrying the Last.fm error code:
//
//	err := client.Track().UpdateNowPlaying(ctx, artist, title)
//	if err != nil {
//	    var lastfmErr *lastfm.Error
//	    if errors.As(err, &lastfmErr) {
//	        log.Printf("api error %d: %s", lastfmErr.Code, lastfmErr.Message)
//	    }
//	}
//
// Each call is made exactly once; retry policy is left to the caller.
//
// # Context Support
//
// All API methods accept a context.Context for cancellation and timeouts:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	token, err := client.Auth().GetToken(ctx)
//
// # Configuration
//
// The client can be configured with custom HTTP clients, base URLs (for
// testing), and optional loggers:
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:     "your-api-key",
//	    APISecret:  "your-api-secret",
//	    SessionKey: "saved-session-key",
//	    HTTPClient: &http.Client{Timeout: 30 * time.Second},
//	    Logger:     myLogger, // Implements lastfm.Logger interface
//	})
//
// # API Coverage
//
// Currently implemented:
//   - Authentication (auth.getToken, auth.getSession)
//   - Track search (track.search)
//   - Scrobbling (track.scrobble, track.updateNowPlaying)
//
// # Last.fm API Documentation
//
// For more information about the Last.fm API:
// https://www.last.fm/api/scrobbling
package lastfm
