// Package auth decorates outgoing requests with the held credential and
// turns 401 responses into a login prompt.
package auth

import (
	"encoding/base64"
	"net/http"
	"sync"

	"todoboard/internal/log"
)

// SessionStore persists the credential for the current session.
type SessionStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Prompt is the login dialog state.
type Prompt struct {
	Open bool
	// Rejected is set when a held credential was refused by the server,
	// as opposed to no credential having been supplied at all.
	Rejected bool
}

type Gate struct {
	mu         sync.Mutex
	session    SessionStore
	credential string
	// pending marks a credential entered at the prompt that no request
	// has confirmed yet.
	pending bool
	prompt  Prompt
}

// New creates a gate, pre-populating the credential from the session store.
func New(session SessionStore) *Gate {
	g := &Gate{session: session}
	if session == nil {
		return g
	}
	token, err := session.Load()
	if err != nil {
		log.Error("session load failed", err)
		return g
	}
	g.credential = token
	return g
}

// Token encodes a username and password the way Basic auth expects.
func Token(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// Authorize adds the Authorization header when a credential is held and
// returns the credential it sent, "" for none. The response must be handed
// back to Intercept and Confirm with that value.
func (g *Gate) Authorize(h http.Header) string {
	g.mu.Lock()
	cred := g.credential
	g.mu.Unlock()
	if cred != "" {
		h.Set("Authorization", "Basic "+cred)
	}
	return cred
}

// Intercept inspects a response status and reports true for a 401. Gate
// state changes only when sent is still the held credential: a 401 for a
// credential that has since been replaced is stale.
func (g *Gate) Intercept(status int, sent string) bool {
	if status != http.StatusUnauthorized {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if sent != g.credential {
		log.Debug("stale 401 ignored")
		return true
	}
	g.prompt.Open = true
	if g.credential == "" {
		log.Info("login required")
		return true
	}
	log.Info("credentials rejected")
	g.credential = ""
	g.pending = false
	g.prompt.Rejected = true
	if g.session != nil {
		if err := g.session.Clear(); err != nil {
			log.Error("session clear failed", err)
		}
	}
	return true
}

// Login installs a credential from the prompt. It is persisted only after
// a request made with it succeeds.
func (g *Gate) Login(username, password string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.credential = Token(username, password)
	g.pending = true
}

// Confirm records a successful response to a request sent with sent. A
// pending credential is saved and the prompt closes only when that request
// carried it.
func (g *Gate) Confirm(sent string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.pending || g.credential == "" || sent != g.credential {
		return
	}
	g.pending = false
	g.prompt = Prompt{}
	if g.session == nil {
		return
	}
	if err := g.session.Save(g.credential); err != nil {
		log.Error("session save failed", err)
	}
}

// Logout drops the credential and the stored session.
func (g *Gate) Logout() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.credential = ""
	g.pending = false
	if g.session == nil {
		return nil
	}
	return g.session.Clear()
}

// DismissPrompt closes the prompt without logging in.
func (g *Gate) DismissPrompt() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompt.Open = false
}

func (g *Gate) Prompt() Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompt
}

func (g *Gate) HasCredential() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.credential != ""
}
