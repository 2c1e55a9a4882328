package clients

import "testing"

func TestValidateRedirectURIHTTPSAlwaysAllowedForUnregisteredClient(t *testing.T) {
	r := New()
	if err := r.ValidateRedirectURI("unknown-client", "https://example.com/callback"); err != nil {
		t.Errorf("expected https to be allowed for unregistered client, got %v", err)
	}
}

func TestValidateRedirectURIRejectsDangerousSchemes(t *testing.T) {
	r := New()
	for _, uri := range []string{"javascript:alert(1)", "data:text/html,hi", "vbscript:msgbox(1)"} {
		if err := r.ValidateRedirectURI("c1", uri); err == nil {
			t.Errorf("expected %q to be rejected", uri)
		}
	}
}

func TestValidateRedirectURIHTTPOnlyAllowedForLocalhost(t *testing.T) {
	r := New()
	if err := r.ValidateRedirectURI("c1", "http://example.com/callback"); err == nil {
		t.Error("expected plain http to non-localhost host to be rejected")
	}
	if err := r.ValidateRedirectURI("c1", "http://localhost:8080/callback"); err != nil {
		t.Errorf("expected http to localhost to be allowed, got %v", err)
	}
	if err := r.ValidateRedirectURI("c1", "http://127.0.0.1:8080/callback"); err != nil {
		t.Errorf("expected http to 127.0.0.1 to be allowed, got %v", err)
	}
}

func TestValidateRedirectURICustomSchemeAllowed(t *testing.T) {
	r := New()
	if err := r.ValidateRedirectURI("c1", "myapp://oauth/callback"); err != nil {
		t.Errorf("expected custom scheme to be allowed, got %v", err)
	}
}

func TestValidateRedirectURIRegisteredClientExactMatch(t *testing.T) {
	r := New()
	r.Register(Client{ID: "c1", RedirectURIs: []string{"https://example.com/cb"}})

	if err := r.ValidateRedirectURI("c1", "https://example.com/cb"); err != nil {
		t.Errorf("expected exact match to pass, got %v", err)
	}
	if err := r.ValidateRedirectURI("c1", "https://example.com/other"); err == nil {
		t.Error("expected mismatched path to be rejected")
	}
}

func TestValidateRedirectURILocalhostPortFlexMatch(t *testing.T) {
	r := New()
	r.Register(Client{ID: "c1", RedirectURIs: []string{"http://localhost:3000/cb"}})

	if err := r.ValidateRedirectURI("c1", "http://localhost:4000/cb"); err != nil {
		t.Errorf("expected localhost port-flex match to pass, got %v", err)
	}
}

func TestValidateRedirectURIMalformedURL(t *testing.T) {
	r := New()
	if err := r.ValidateRedirectURI("c1", "://not a url"); err == nil {
		t.Error("expected malformed URL to be rejected")
	}
}
