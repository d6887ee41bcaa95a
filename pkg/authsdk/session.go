package authsdk

import "sync"

// Session represents an authenticated session. Tokens are not refreshed;
// once the token expires the service answers 401 and the caller logs in again.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	accessToken string
}

// AccessToken returns the bearer token held by the session.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}
