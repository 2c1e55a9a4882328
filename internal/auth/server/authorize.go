package server

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olifog/yamos/internal/auth/pendingauth"
	"github.com/olifog/yamos/internal/logging"
)

// handleAuthorize validates redirect_uri before anything else (never
// redirects to an unvalidated URI, preventing open redirects), mints a
// consent-session code, stores the pending authorization, and renders
// the consent page with the security headers §4.9 requires.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	log := logging.WithComponent("oauth")
	q := r.URL.Query()

	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	codeChallenge := q.Get("code_challenge")
	challengeMethod := q.Get("code_challenge_method")
	state := q.Get("state")
	scope := q.Get("scope")

	if clientID == "" || redirectURI == "" || codeChallenge == "" {
		http.Error(w, "missing required parameter", http.StatusBadRequest)
		return
	}
	if challengeMethod != "" && challengeMethod != "S256" {
		http.Error(w, "unsupported code_challenge_method: only S256 is accepted", http.StatusBadRequest)
		return
	}

	if err := s.registry.ValidateRedirectURI(clientID, redirectURI); err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("rejected invalid redirect_uri")
		http.Error(w, "invalid redirect_uri: "+err.Error(), http.StatusBadRequest)
		return
	}

	sessionCode := uuid.NewString()
	s.pending.StorePending(sessionCode, pendingauth.Record{
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: "S256",
		State:               state,
		Scope:               scope,
		CreatedAt:           time.Now(),
	})
	s.pending.CleanupExpired()

	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(consentPage(s.cfg.BasePath, clientID, sessionCode, s.cfg.ConsentPIN != "")))
}

// handleAuthorizeCallback processes the consent decision. Per the
// resolved open question (§8), this endpoint is POST-only: a GET link
// would let a prefetcher silently approve pending authorizations.
func (s *Server) handleAuthorizeCallback(w http.ResponseWriter, r *http.Request) {
	log := logging.WithComponent("oauth")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	code := r.Form.Get("code")
	approve := r.Form.Get("approve")
	pin := r.Form.Get("pin")

	pending, ok := s.pending.TakePending(code)
	if !ok {
		log.Warn().Str("code", code).Msg("authorization session expired or invalid")
		http.Error(w, "authorization session expired or invalid", http.StatusBadRequest)
		return
	}

	if s.cfg.ConsentPIN != "" && !constantTimeEqual(pin, s.cfg.ConsentPIN) {
		errorRedirect(w, r, pending.RedirectURI, "access_denied", "invalid consent PIN", pending.State)
		return
	}

	if approve != "true" {
		errorRedirect(w, r, pending.RedirectURI, "access_denied", "user denied the authorization request", pending.State)
		return
	}

	authCode := uuid.NewString()
	s.pending.StorePending(authCode, pending)

	redirectURL := pending.RedirectURI
	redirectURL += sep(redirectURL)
	redirectURL += "code=" + url.QueryEscape(authCode)
	if pending.State != "" {
		redirectURL += "&state=" + url.QueryEscape(pending.State)
	}

	log.Info().Str("client_id", pending.ClientID).Msg("authorization approved")
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

func errorRedirect(w http.ResponseWriter, r *http.Request, redirectURI, errCode, description, state string) {
	u := redirectURI
	u += sep(u)
	u += fmt.Sprintf("error=%s&error_description=%s", errCode, url.QueryEscape(description))
	if state != "" {
		u += "&state=" + url.QueryEscape(state)
	}
	http.Redirect(w, r, u, http.StatusTemporaryRedirect)
}

func sep(u string) string {
	if strings.Contains(u, "?") {
		return "&"
	}
	return "?"
}

func consentPage(basePath, clientID, code string, requirePIN bool) string {
	pinField := ""
	if requirePIN {
		pinField = `<input type="password" name="pin" placeholder="Consent PIN" required>`
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Authorize MCP Client</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 400px; margin: 100px auto; padding: 20px; text-align: center; }
        h1 { color: #333; }
        .client-id { background: #f5f5f5; padding: 10px; border-radius: 4px; font-family: monospace; word-break: break-all; }
        .buttons { margin-top: 30px; }
        input { padding: 10px; margin: 10px 0; width: 100%%; box-sizing: border-box; }
        button { padding: 12px 24px; margin: 5px; border: none; border-radius: 4px; cursor: pointer; font-size: 16px; }
        .approve { background: #0066cc; color: white; }
        .deny { background: #666; color: white; }
    </style>
</head>
<body>
    <h1>Authorize Application</h1>
    <p>The following application is requesting access to your notes:</p>
    <div class="client-id">%s</div>
    <form method="POST" action="%s/authorize/callback">
        <input type="hidden" name="code" value="%s">
        %s
        <div class="buttons">
            <button class="approve" type="submit" name="approve" value="true">Approve</button>
            <button class="deny" type="submit" name="approve" value="false">Deny</button>
        </div>
    </form>
</body>
</html>`, html.EscapeString(clientID), basePath, html.EscapeString(code), pinField)
}
