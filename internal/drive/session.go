package drive

import (
	"sync"

	"golang.org/x/oauth2"
)

// Session holds the per-connection remote state: the bearer token and the
// memoized id of the board file. The sync coordinator owns one per board.
type Session struct {
	mu     sync.Mutex
	token  *oauth2.Token
	fileID string
}

// NewSession returns an unauthenticated session
func NewSession() *Session {
	return &Session{}
}

// IsAuthenticated reports whether a token is held and not expired
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != nil && s.token.Valid()
}

// Token returns the current token, or nil
func (s *Session) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken installs a freshly acquired token
func (s *Session) SetToken(tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
}

// FileID returns the memoized board file id
func (s *Session) FileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileID
}

func (s *Session) setFileID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileID = id
}

// Clear drops the token and the memoized file id
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.fileID = ""
}
