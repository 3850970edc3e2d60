// Package session carries per-request identity and display state. A Session
// is created for each user interaction and threaded explicitly through the
// persistence and service layers; there is no process-wide session state.
package session

// Session identifies the acting user for one unit of work.
type Session struct {
	// Username is the authenticated identity. Empty for guests.
	Username string
	// IsGuest marks an anonymous session: data lives in memory only and
	// nothing is persisted.
	IsGuest bool
	// Currency is the display currency detected from the user's statements.
	Currency string
}

// NewUser creates a session for an authenticated user.
func NewUser(username string) *Session {
	return &Session{Username: username}
}

// NewGuest creates an anonymous in-memory session.
func NewGuest() *Session {
	return &Session{IsGuest: true}
}
