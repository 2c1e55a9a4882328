// Package server implements the OAuth 2.1 authorization-code (with
// PKCE) and client_credentials HTTP surface, dynamic client
// registration, authorization/protected-resource metadata, and the
// bearer-token auth middleware that gates the MCP transport.
package server

import (
	"net/http"
	"time"

	"github.com/olifog/yamos/internal/auth/clients"
	"github.com/olifog/yamos/internal/auth/credentials"
	"github.com/olifog/yamos/internal/auth/pendingauth"
	"github.com/olifog/yamos/internal/auth/token"
)

// Config carries the OAuth server's external configuration.
type Config struct {
	BaseURL      string // e.g. "https://gateway.example.com", no trailing slash
	BasePath     string // path prefix the endpoints are mounted under, e.g. "/api"; "" for none
	JWTSecret    string
	TokenTTL     time.Duration // 0 means issued tokens never expire
	ConsentPIN   string        // optional; empty disables the PIN gate
	LegacyToken  string        // optional static bearer token, alternative to OAuth
	OAuthEnabled bool
}

// Server wires the pending-authorization store, client registry,
// credential validator, and token service behind the OAuth HTTP
// endpoints and the bearer-auth middleware.
type Server struct {
	cfg         Config
	pending     *pendingauth.Store
	registry    *clients.Registry
	credentials *credentials.Validator
	tokens      *token.Service
}

// New builds a Server from cfg and a statically configured
// client_id/client_secret pair.
func New(cfg Config, staticClientID, staticClientSecret string) *Server {
	registry := clients.New()
	return &Server{
		cfg:         cfg,
		pending:     pendingauth.New(),
		registry:    registry,
		credentials: credentials.New(registry, staticClientID, staticClientSecret),
		tokens:      token.New(cfg.JWTSecret, cfg.TokenTTL),
	}
}

// Register wires every OAuth endpoint onto mux, rooted at basePath
// (empty string for no prefix). It is the single-mux convenience used
// by tests that exercise the full flow directly; the gateway's
// composition root instead calls RegisterAuthFlow and
// RegisterCredentialEndpoints separately so it can wrap the latter in
// the stricter rate-limit tier spec.md §4.11 requires for /token and
// /register.
func (s *Server) Register(mux *http.ServeMux, basePath string) {
	s.RegisterAuthFlow(mux, basePath)
	s.RegisterCredentialEndpoints(mux, basePath)
}

// RegisterAuthFlow wires the consent/authorize and metadata endpoints.
func (s *Server) RegisterAuthFlow(mux *http.ServeMux, basePath string) {
	mux.HandleFunc("GET "+basePath+"/authorize", s.handleAuthorize)
	mux.HandleFunc("POST "+basePath+"/authorize/callback", s.handleAuthorizeCallback)
	mux.HandleFunc("GET "+basePath+"/.well-known/oauth-protected-resource", s.handleProtectedResourceMetadata)
	mux.HandleFunc("GET "+basePath+"/.well-known/oauth-authorization-server", s.handleAuthorizationServerMetadata)
}

// RegisterCredentialEndpoints wires /token and /register, the two
// credential-issuing routes spec.md §4.11 calls out by name for the
// stricter (half-rate, burst/3) rate-limit tier, to blunt
// credential-stuffing.
func (s *Server) RegisterCredentialEndpoints(mux *http.ServeMux, basePath string) {
	mux.HandleFunc("POST "+basePath+"/token", s.handleToken)
	mux.HandleFunc("POST "+basePath+"/register", s.handleRegister)
}

// Middleware returns the bearer-auth middleware appropriate to the
// server's configuration: JWT validation when OAuth is enabled, or
// constant-time static-token comparison in legacy mode.
func (s *Server) Middleware() func(http.Handler) http.Handler {
	if s.cfg.OAuthEnabled {
		return s.jwtAuthMiddleware
	}
	if s.cfg.LegacyToken != "" {
		return s.legacyAuthMiddleware
	}
	return func(next http.Handler) http.Handler { return next }
}
