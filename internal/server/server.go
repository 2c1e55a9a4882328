// Package server is the gateway's composition root: it wires the
// document-store client, the search index and its change-feed
// watcher, the rate limiter, the OAuth HTTP surface, and the MCP tool
// transport behind a single http.Handler.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	authserver "github.com/olifog/yamos/internal/auth/server"
	"github.com/olifog/yamos/internal/config"
	"github.com/olifog/yamos/internal/couchdb"
	"github.com/olifog/yamos/internal/logging"
	"github.com/olifog/yamos/internal/mcptools"
	"github.com/olifog/yamos/internal/ratelimit"
	"github.com/olifog/yamos/internal/search"
)

// Server is the assembled gateway: one HTTP handler backed by the
// document store, the in-memory search index, the OAuth endpoints,
// and the MCP tool dispatcher.
type Server struct {
	cfg         *config.Config
	db          *couchdb.Client
	index       *search.Index
	watcher     *search.Watcher
	limiter     *ratelimit.Limiter // main tier: wraps the whole handler
	authLimiter *ratelimit.Limiter // stricter tier: wraps /token and /register only
	oauth       *authserver.Server
	handler     http.Handler
}

// New assembles a Server from cfg. It does not start any background
// goroutines or listen on any socket — call Run for that.
func New(cfg *config.Config) *Server {
	db := couchdb.New(cfg.CouchDB.URL, cfg.CouchDB.Database, cfg.CouchDB.Username, cfg.CouchDB.Password)
	index := search.New()
	watcher := search.NewWatcher(db, index)
	limiter := ratelimit.New(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	strictRPS, strictBurst := cfg.RateLimit.StrictTier()
	authLimiter := ratelimit.New(strictRPS, strictBurst)

	oauth := authserver.New(authserver.Config{
		BaseURL:      cfg.Server.PublicURL,
		BasePath:     cfg.Server.BasePath,
		JWTSecret:    cfg.OAuth.JWTSecret,
		TokenTTL:     time.Duration(cfg.OAuth.TokenExpirySecs) * time.Second,
		ConsentPIN:   cfg.OAuth.ConsentPIN,
		LegacyToken:  cfg.OAuth.LegacyBearerToken,
		OAuthEnabled: cfg.OAuth.Enabled,
	}, cfg.OAuth.StaticClientID, cfg.OAuth.StaticClientSecret)

	s := &Server{cfg: cfg, db: db, index: index, watcher: watcher, limiter: limiter, authLimiter: authLimiter, oauth: oauth}
	s.handler = s.buildHandler()
	return s
}

func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	s.oauth.RegisterAuthFlow(mux, s.cfg.Server.BasePath)

	// /token and /register sit behind their own stricter tier (spec.md
	// §4.11: half the main rate, burst/3) in addition to the main
	// bucket that wraps the whole mux below, to blunt credential
	// stuffing against the credential-issuing routes specifically.
	credMux := http.NewServeMux()
	s.oauth.RegisterCredentialEndpoints(credMux, s.cfg.Server.BasePath)
	credHandler := s.authLimiter.Middleware(credMux)
	mux.Handle(s.cfg.Server.BasePath+"/token", credHandler)
	mux.Handle(s.cfg.Server.BasePath+"/register", credHandler)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "yamos",
		Version: "1.0.0",
	}, nil)
	mcptools.New(s.db, s.index).RegisterTools(mcpServer)

	transportHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	toolPath := s.cfg.Server.BasePath + "/"
	protected := s.oauth.Middleware()(transportHandler)
	mux.Handle(toolPath, protected)

	return s.limiter.Middleware(mux)
}

// Handler returns the gateway's assembled http.Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the change-feed watcher and rate-limiter cleanup job in
// the background, then blocks serving HTTP until ctx is cancelled.
// Per SPEC_FULL.md's supplemented test_connection probe, Run checks
// the document-store connection up front and fails fast with a clear
// log line rather than starting the watcher against an unreachable
// backend.
func (s *Server) Run(ctx context.Context) error {
	log := logging.WithComponent("server")

	if err := s.db.TestConnection(ctx); err != nil {
		log.Error().Err(err).Msg("document store unreachable, refusing to start")
		return fmt.Errorf("test connection: %w", err)
	}

	stop := make(chan struct{})
	s.limiter.StartCleanupJob(stop)
	s.authLimiter.StartCleanupJob(stop)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	go func() {
		if err := s.watcher.Run(watchCtx); err != nil {
			log.Error().Err(err).Msg("change-feed watcher stopped")
		}
	}()

	httpServer := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr()).Msg("gateway listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		close(stop)
		cancelWatch()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		close(stop)
		cancelWatch()
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
