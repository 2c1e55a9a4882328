// Package clients implements the dynamic client registry and the
// redirect-URI validation policy that both the OAuth endpoints and the
// dynamic-registration handler consult.
package clients

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client is one dynamically registered OAuth client.
type Client struct {
	ID           string
	Secret       string
	RedirectURIs []string
	GrantTypes   []string
	CreatedAt    time.Time
}

// Registry is a process-memory store of dynamically registered
// clients, keyed by client_id.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// New returns an empty client registry.
func New() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register stores c, overwriting any existing entry with the same ID.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

// Get returns the registered client for id, if any.
func (r *Registry) Get(id string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// ValidateRedirectURI enforces §4.6's policy: scheme rules, exact or
// localhost-port-flexible matching against a registered client's URIs,
// and an allow-with-warning fallback for clients absent from the
// registry (back-compat for statically configured clients).
//
// Returns a nil error on success, or an error describing the first
// policy violation.
func (r *Registry) ValidateRedirectURI(clientID, redirectURI string) error {
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" {
		return fmt.Errorf("redirect_uri is not a valid URL: %s", redirectURI)
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "javascript", "data", "vbscript":
		return fmt.Errorf("redirect_uri scheme %q is not allowed", scheme)
	case "https":
		// always allowed
	case "http":
		if !isLocalHost(parsed.Hostname()) {
			return fmt.Errorf("redirect_uri scheme http is only allowed for localhost")
		}
	default:
		// custom app schemes are allowed
	}

	r.mu.RLock()
	client, registered := r.clients[clientID]
	r.mu.RUnlock()

	if !registered {
		// Back-compat: statically configured clients are not in the
		// dynamic registry. Allow, but the caller is expected to log a
		// warning.
		return nil
	}

	for _, candidate := range client.RedirectURIs {
		if candidate == redirectURI {
			return nil
		}
		if localhostFlexMatch(candidate, redirectURI) {
			return nil
		}
	}
	return fmt.Errorf("redirect_uri %q is not registered for client %q", redirectURI, clientID)
}

func isLocalHost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// localhostFlexMatch allows a registered localhost redirect URI to
// match an incoming one that differs only by port, when scheme, host,
// and path all agree.
func localhostFlexMatch(registered, incoming string) bool {
	a, err := url.Parse(registered)
	if err != nil {
		return false
	}
	b, err := url.Parse(incoming)
	if err != nil {
		return false
	}
	if !isLocalHost(a.Hostname()) || !isLocalHost(b.Hostname()) {
		return false
	}
	return a.Scheme == b.Scheme && a.Hostname() == b.Hostname() && a.Path == b.Path
}
