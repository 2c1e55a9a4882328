package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/olifog/yamos/internal/logging"
)

// jwtAuthMiddleware validates Bearer tokens as JWTs, returning a 401
// with a WWW-Authenticate header per RFC 9728 on any failure.
func (s *Server) jwtAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.WithComponent("oauth")
		authz := r.Header.Get("Authorization")

		token, ok := strings.CutPrefix(authz, "Bearer ")
		if !ok || token == "" {
			log.Warn().Str("path", r.URL.Path).Msg("missing or malformed authorization header")
			s.writeUnauthorized(w, "")
			return
		}

		if _, err := s.tokens.Validate(token); err != nil {
			log.Warn().Err(err).Msg("invalid JWT token")
			s.writeUnauthorized(w, "invalid_token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// legacyAuthMiddleware compares a static bearer token in constant time.
func (s *Server) legacyAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authz, "Bearer ")
		if !ok || !constantTimeEqual(token, s.cfg.LegacyToken) {
			logging.WithComponent("oauth").Warn().Msg("invalid legacy authentication token")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeUnauthorized(w http.ResponseWriter, errCode string) {
	base := s.cfg.BaseURL
	var www string
	if errCode != "" {
		www = fmt.Sprintf(`Bearer realm="%s", resource_metadata="%s/.well-known/oauth-protected-resource", error="%s"`, base, base, errCode)
	} else {
		www = fmt.Sprintf(`Bearer realm="%s", resource_metadata="%s/.well-known/oauth-protected-resource"`, base, base)
	}
	w.Header().Set("WWW-Authenticate", www)
	w.WriteHeader(http.StatusUnauthorized)
}
