// Package config provides configuration for the yamos gateway.
// Loads from: env vars > TOML config file > built-in defaults. The
// --config CLI flag only selects the file; no flag overrides a key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// TransportMode names an MCP transport for the server.transport key.
// The gateway does not read the key: it always serves the streaming
// HTTP transport, and stdio is not served.
type TransportMode string

const (
	TransportStdio         TransportMode = "stdio"
	TransportHTTPStreaming TransportMode = "http-streaming"
)

// ServerConfig controls the gateway's bind address and transport.
type ServerConfig struct {
	Transport   string `toml:"transport"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	BasePath    string `toml:"base_path"`
	PublicURL   string `toml:"public_url"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
}

// CouchDBConfig locates the replicated document-store backend.
type CouchDBConfig struct {
	URL      string `toml:"url"`
	Database string `toml:"database"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// OAuthConfig controls the OAuth 2.1 authorization surface and its
// legacy bearer-token fallback.
type OAuthConfig struct {
	Enabled           bool   `toml:"enabled"`
	JWTSecret         string `toml:"jwt_secret"`
	TokenExpirySecs   int    `toml:"token_expiry_seconds"`
	StaticClientID    string `toml:"static_client_id"`
	StaticClientSecret string `toml:"static_client_secret"`
	ConsentPIN        string `toml:"consent_pin"`
	LegacyBearerToken string `toml:"legacy_bearer_token"`
}

// RateLimitConfig controls the per-client-IP token bucket. Per
// spec.md §4.11 there are two tiers: the main bucket (PerSecond/Burst)
// wraps every protected route, and a stricter bucket wraps /token and
// /register specifically to blunt credential stuffing. StrictPerSecond
// and StrictBurst default to half the main rate and burst/3 when left
// at zero, but can be set explicitly to override that derivation.
type RateLimitConfig struct {
	PerSecond       float64 `toml:"per_second"`
	Burst           int     `toml:"burst"`
	StrictPerSecond float64 `toml:"strict_per_second"`
	StrictBurst     int     `toml:"strict_burst"`
}

// StrictTier returns the stricter bucket's rate and burst: the
// explicitly configured values if set, otherwise half the main rate
// and burst/3 (minimum burst of 1), per spec.md §4.11.
func (c RateLimitConfig) StrictTier() (rps float64, burst int) {
	rps = c.StrictPerSecond
	if rps == 0 {
		rps = c.PerSecond / 2
	}
	burst = c.StrictBurst
	if burst == 0 {
		burst = c.Burst / 3
		if burst < 1 {
			burst = 1
		}
	}
	return rps, burst
}

// Config is the gateway's fully resolved configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	CouchDB   CouchDBConfig   `toml:"couchdb"`
	OAuth     OAuthConfig     `toml:"oauth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// DefaultConfig returns the gateway's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: string(TransportHTTPStreaming),
			Host:      "0.0.0.0",
			Port:      8787,
			BasePath:  "",
			LogLevel:  "info",
			LogFormat: "console",
		},
		CouchDB: CouchDBConfig{
			URL:      "http://localhost:5984",
			Database: "yamos",
		},
		OAuth: OAuthConfig{
			Enabled:         false,
			TokenExpirySecs: 3600,
		},
		RateLimit: RateLimitConfig{
			PerSecond: 10,
			Burst:     20,
		},
	}
}

// LoadConfig merges all configuration sources: defaults < TOML file <
// environment variables. configPath may be empty, in which case no
// file is read and only defaults and env vars apply.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			meta, err := toml.DecodeFile(configPath, cfg)
			if err != nil {
				return nil, fmt.Errorf("parse config %s: %w", configPath, err)
			}
			warnUnknownKeys(meta, configPath)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("YAMOS_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
	if v := os.Getenv("YAMOS_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("YAMOS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("YAMOS_BASE_PATH"); v != "" {
		cfg.Server.BasePath = v
	}
	if v := os.Getenv("YAMOS_PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("YAMOS_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("YAMOS_LOG_FORMAT"); v != "" {
		cfg.Server.LogFormat = v
	}

	if v := os.Getenv("YAMOS_COUCHDB_URL"); v != "" {
		cfg.CouchDB.URL = v
	}
	if v := os.Getenv("YAMOS_COUCHDB_DATABASE"); v != "" {
		cfg.CouchDB.Database = v
	}
	if v := os.Getenv("YAMOS_COUCHDB_USERNAME"); v != "" {
		cfg.CouchDB.Username = v
	}
	if v := os.Getenv("YAMOS_COUCHDB_PASSWORD"); v != "" {
		cfg.CouchDB.Password = v
	}

	if v := os.Getenv("YAMOS_OAUTH_ENABLED"); v != "" {
		cfg.OAuth.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("YAMOS_JWT_SECRET"); v != "" {
		cfg.OAuth.JWTSecret = v
	}
	if v := os.Getenv("YAMOS_TOKEN_EXPIRY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OAuth.TokenExpirySecs = n
		}
	}
	if v := os.Getenv("YAMOS_STATIC_CLIENT_ID"); v != "" {
		cfg.OAuth.StaticClientID = v
	}
	if v := os.Getenv("YAMOS_STATIC_CLIENT_SECRET"); v != "" {
		cfg.OAuth.StaticClientSecret = v
	}
	if v := os.Getenv("YAMOS_CONSENT_PIN"); v != "" {
		cfg.OAuth.ConsentPIN = v
	}
	if v := os.Getenv("YAMOS_LEGACY_BEARER_TOKEN"); v != "" {
		cfg.OAuth.LegacyBearerToken = v
	}

	if v := os.Getenv("YAMOS_RATE_LIMIT_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.PerSecond = f
		}
	}
	if v := os.Getenv("YAMOS_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("YAMOS_RATE_LIMIT_STRICT_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.StrictPerSecond = f
		}
	}
	if v := os.Getenv("YAMOS_RATE_LIMIT_STRICT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.StrictBurst = n
		}
	}
}

// configSuggestions maps common misspellings/aliases of recognized
// keys to the canonical key, so warnUnknownKeys can offer a hint.
var configSuggestions = map[string]string{
	"loglevel":    "log_level",
	"log-level":   "log_level",
	"logformat":   "log_format",
	"basepath":    "base_path",
	"base-path":   "base_path",
	"publicurl":   "public_url",
	"public-url":  "public_url",
	"jwtsecret":   "jwt_secret",
	"jwt-secret":  "jwt_secret",
	"clientid":    "static_client_id",
	"clientsecret": "static_client_secret",
	"pin":          "consent_pin",
	"token":        "legacy_bearer_token",
	"rps":          "per_second",
	"strictrps":    "strict_per_second",
	"strict-rps":   "strict_per_second",
	"strictburst":  "strict_burst",
	"strict-burst": "strict_burst",
}

// warnUnknownKeys prints warnings for unrecognized config keys.
func warnUnknownKeys(meta toml.MetaData, configPath string) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}

	fname := filepath.Base(configPath)
	for _, key := range undecoded {
		keyStr := key.String()
		lastPart := key[len(key)-1]

		if suggestion, ok := configSuggestions[lastPart]; ok {
			fmt.Fprintf(os.Stderr, "yamos: WARNING: unknown key %q in %s — did you mean %q?\n",
				keyStr, fname, suggestion)
		} else {
			fmt.Fprintf(os.Stderr, "yamos: WARNING: unknown key %q in %s (will be ignored)\n",
				keyStr, fname)
		}
	}
}

// ShowConfig renders the effective, fully merged configuration as TOML,
// with secrets redacted.
func ShowConfig(cfg *Config) string {
	redacted := *cfg
	if redacted.CouchDB.Password != "" {
		redacted.CouchDB.Password = "[redacted]"
	}
	if redacted.OAuth.JWTSecret != "" {
		redacted.OAuth.JWTSecret = "[redacted]"
	}
	if redacted.OAuth.StaticClientSecret != "" {
		redacted.OAuth.StaticClientSecret = "[redacted]"
	}
	if redacted.OAuth.ConsentPIN != "" {
		redacted.OAuth.ConsentPIN = "[redacted]"
	}
	if redacted.OAuth.LegacyBearerToken != "" {
		redacted.OAuth.LegacyBearerToken = "[redacted]"
	}

	var b strings.Builder
	b.WriteString("# Effective yamos configuration (merged from all sources)\n\n")
	enc := toml.NewEncoder(&b)
	enc.Encode(redacted)
	return b.String()
}

// Addr returns the gateway's bind address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
