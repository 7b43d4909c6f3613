// Package session provides the per-request session handle and the
// cookie-backed store that persists it on the client.
package session

// KeyUser holds the authenticated display name.
const KeyUser = "user"

// Session is a borrowed, per-request view over client-held session values.
// It is not safe for concurrent use and must not outlive the request.
type Session struct {
	values      map[string]string
	isNew       bool
	invalidated bool
}

// New returns an empty session that has never been persisted.
func New() *Session {
	return &Session{values: make(map[string]string), isNew: true}
}

// Get returns the value stored for key.
func (s *Session) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	value, ok := s.values[key]
	return value, ok
}

// Set stores value under key.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.invalidated = false
}

// Invalidate drops every value; the next save removes the client cookie.
func (s *Session) Invalidate() {
	s.values = make(map[string]string)
	s.invalidated = true
}

// Invalidated reports whether Invalidate was called since the last Set.
func (s *Session) Invalidated() bool {
	return s != nil && s.invalidated
}

// IsNew reports whether the session was not loaded from a valid cookie.
func (s *Session) IsNew() bool {
	return s == nil || s.isNew
}

func (s *Session) snapshot() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
