package chat

import "sync"

// CredentialSource supplies the bearer credential for outbound requests.
type CredentialSource interface {
	Credential() (string, bool)
}

// Session carries the signed-in user's credential. It is created at startup,
// refreshed whenever the credential changes and closed at logout.
type Session struct {
	mu     sync.RWMutex
	token  string
	closed bool
}

// NewSession starts a session with an optional initial credential.
func NewSession(token string) *Session {
	return &Session{token: token}
}

// Credential returns the current token. It reports false once the session is
// closed or when no token has been set.
func (s *Session) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.token == "" {
		return "", false
	}
	return s.token, true
}

// Refresh replaces the credential, reopening a closed session.
func (s *Session) Refresh(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.closed = false
}

// Close drops the credential.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.closed = true
}
