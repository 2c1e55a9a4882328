package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/olifog/yamos/internal/auth/clients"
	"github.com/olifog/yamos/internal/logging"
)

type registrationRequest struct {
	ClientName   string   `json:"client_name,omitempty"`
	GrantTypes   []string `json:"grant_types,omitempty"`
	RedirectURIs []string `json:"redirect_uris,omitempty"`
}

type registrationResponse struct {
	ClientID              string   `json:"client_id"`
	ClientSecret          string   `json:"client_secret"`
	ClientIDIssuedAt      int64    `json:"client_id_issued_at"`
	ClientSecretExpiresAt int64    `json:"client_secret_expires_at"`
	GrantTypes            []string `json:"grant_types"`
}

// handleRegister implements RFC 7591 dynamic client registration.
// Credentials are not persisted past process lifetime.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	log := logging.WithComponent("oauth")
	var req registrationRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // an empty body is a valid registration request

	clientID := "mcp-client-" + uuid.NewString()
	clientSecret := uuid.NewString()

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{"authorization_code"}
	}

	if len(req.RedirectURIs) > 0 {
		s.registry.Register(clients.Client{
			ID:           clientID,
			Secret:       clientSecret,
			RedirectURIs: req.RedirectURIs,
			GrantTypes:   grantTypes,
			CreatedAt:    time.Now(),
		})
	}

	log.Info().Str("client_id", clientID).Str("client_name", req.ClientName).Msg("dynamic client registration")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(registrationResponse{
		ClientID:              clientID,
		ClientSecret:          clientSecret,
		ClientIDIssuedAt:      time.Now().Unix(),
		ClientSecretExpiresAt: 0,
		GrantTypes:            grantTypes,
	})
}
