package lastfm

// Match represents the best search result for a track.
type Match struct {
	Artist string // Canonical artist name
	Name   string // Canonical track name
}

// Token represents an authentication token from auth.getToken.
type Token struct {
	Token string // The authentication token
}

// Session represents an authenticated session from auth.getSession.
type Session struct {
	Key        string // Session key for authenticated requests
	Username   string // Last.fm username
	Subscriber bool   // Whether user is a subscriber
}
