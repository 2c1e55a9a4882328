package server

import (
	"encoding/json"
	"net/http"

	"github.com/olifog/yamos/internal/logging"
)

// tokenErrorResponse is the RFC 6749 error shape.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeTokenError(w http.ResponseWriter, status int, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(tokenErrorResponse{Error: errCode, ErrorDescription: description})
}

// handleToken implements POST /token for both the authorization_code
// and client_credentials grants.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	switch r.Form.Get("grant_type") {
	case "authorization_code":
		s.handleAuthorizationCodeGrant(w, r)
	case "client_credentials":
		s.handleClientCredentialsGrant(w, r)
	default:
		writeTokenError(w, http.StatusBadRequest, "unsupported_grant_type", "grant_type must be authorization_code or client_credentials")
	}
}

func (s *Server) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request) {
	log := logging.WithComponent("oauth")
	s.pending.CleanupExpired()

	code := r.Form.Get("code")
	if code == "" {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "missing required parameter: code")
		return
	}
	codeVerifier := r.Form.Get("code_verifier")
	if codeVerifier == "" {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "missing required parameter: code_verifier")
		return
	}
	redirectURI := r.Form.Get("redirect_uri")
	if redirectURI == "" {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "missing required parameter: redirect_uri")
		return
	}

	pending, ok := s.pending.TakePending(code)
	if !ok {
		log.Warn().Msg("invalid or expired authorization code")
		writeTokenError(w, http.StatusBadRequest, "invalid_grant", "invalid or expired authorization code")
		return
	}

	if redirectURI != pending.RedirectURI {
		log.Warn().Str("client_id", pending.ClientID).Msg("redirect_uri mismatch")
		writeTokenError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri mismatch")
		return
	}

	if !verifyPKCE(codeVerifier, pending.CodeChallenge) {
		log.Warn().Str("client_id", pending.ClientID).Msg("PKCE verification failed")
		writeTokenError(w, http.StatusBadRequest, "invalid_grant", "PKCE verification failed")
		return
	}

	resp, err := s.tokens.Issue(pending.ClientID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue token")
		writeTokenError(w, http.StatusInternalServerError, "server_error", "failed to issue token")
		return
	}

	log.Info().Str("client_id", pending.ClientID).Msg("issued token via authorization_code")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleClientCredentialsGrant(w http.ResponseWriter, r *http.Request) {
	log := logging.WithComponent("oauth")

	clientID := r.Form.Get("client_id")
	clientSecret := r.Form.Get("client_secret")
	if clientID == "" {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "missing required parameter: client_id")
		return
	}
	if clientSecret == "" {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "missing required parameter: client_secret")
		return
	}

	if err := s.credentials.Validate(clientID, clientSecret); err != nil {
		writeTokenError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}

	resp, err := s.tokens.Issue(clientID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue token")
		writeTokenError(w, http.StatusInternalServerError, "server_error", "failed to issue token")
		return
	}

	log.Info().Str("client_id", clientID).Msg("issued token via client_credentials")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
