package server

import (
	"encoding/json"
	"net/http"
)

type protectedResourceMetadata struct {
	Resource            string   `json:"resource"`
	AuthorizationServers []string `json:"authorization_servers"`
}

// handleProtectedResourceMetadata implements RFC 9728: the first thing
// an MCP client fetches to discover where to authenticate.
func (s *Server) handleProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(protectedResourceMetadata{
		Resource:             s.cfg.BaseURL,
		AuthorizationServers: []string{s.cfg.BaseURL},
	})
}

type authorizationServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
}

// handleAuthorizationServerMetadata implements RFC 8414, advertising
// only the authorization_code grant with S256 PKCE (public clients);
// client_credentials remains supported but unadvertised to avoid
// confusing MCP clients that only expect the authorization_code flow.
func (s *Server) handleAuthorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	base := s.cfg.BaseURL
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(authorizationServerMetadata{
		Issuer:                            base,
		AuthorizationEndpoint:             base + "/authorize",
		TokenEndpoint:                     base + "/token",
		RegistrationEndpoint:              base + "/register",
		GrantTypesSupported:               []string{"authorization_code"},
		TokenEndpointAuthMethodsSupported: []string{"none"},
		ResponseTypesSupported:            []string{"code"},
		CodeChallengeMethodsSupported:     []string{"S256"},
	})
}
