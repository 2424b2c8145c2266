package forge

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

const (
	authorizationBearerPrefix = "bearer "
	authorizationTokenPrefix  = "token "
)

// Session holds the bearer credential shared by every request of a run.
// The fetcher clears it when the forge rejects it; the change is visible to later requests.
type Session struct {
	mutex sync.RWMutex
	token string
}

// NewSession returns a Session seeded with token. An empty token means anonymous access.
func NewSession(token string) *Session {
	session := &Session{}
	session.SetCredential(token)
	return session
}

// SetCredential replaces the held credential. A "Bearer " or "token " prefix is stripped.
func (session *Session) SetCredential(token string) {
	normalized := normalizeToken(token)
	session.mutex.Lock()
	session.token = normalized
	session.mutex.Unlock()
}

// Clear drops the held credential.
func (session *Session) Clear() {
	session.mutex.Lock()
	session.token = ""
	session.mutex.Unlock()
}

// Credential returns the held token or an empty string.
func (session *Session) Credential() string {
	if session == nil {
		return ""
	}
	session.mutex.RLock()
	defer session.mutex.RUnlock()
	return session.token
}

// HasCredential reports whether a token is held.
func (session *Session) HasCredential() bool {
	return session.Credential() != ""
}

// sessionTransport attaches the session credential, read at request time, as a bearer token.
type sessionTransport struct {
	session *Session
	base    http.RoundTripper
}

func (transport sessionTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	base := transport.base
	if base == nil {
		base = http.DefaultTransport
	}
	token := transport.session.Credential()
	if token == "" {
		return base.RoundTrip(request)
	}
	authorized := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   base,
	}
	return authorized.RoundTrip(request)
}

func normalizeToken(rawToken string) string {
	trimmed := strings.TrimSpace(rawToken)
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{authorizationBearerPrefix, authorizationTokenPrefix} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}
