// Package credentials implements the two-stage client credential
// validator used by the client_credentials grant.
package credentials

import (
	"crypto/subtle"

	"github.com/olifog/yamos/internal/auth/clients"
	"github.com/olifog/yamos/internal/yerr"
)

// ErrInvalidCredentials is the single opaque error returned for any
// credential mismatch, regardless of which field failed to match.
var ErrInvalidCredentials = yerr.New(yerr.InvalidClient, "invalid credentials")

// Validator checks a presented client_id/client_secret pair against a
// dynamic registry first, then a statically configured pair.
type Validator struct {
	registry           *clients.Registry
	staticClientID     string
	staticClientSecret string
}

// New builds a Validator over registry and the statically configured
// client_id/client_secret pair from configuration.
func New(registry *clients.Registry, staticClientID, staticClientSecret string) *Validator {
	return &Validator{
		registry:           registry,
		staticClientID:     staticClientID,
		staticClientSecret: staticClientSecret,
	}
}

// Validate succeeds if clientID/clientSecret match a dynamically
// registered client, or else the statically configured pair via
// constant-time comparison. It never reveals which check, or which
// field, failed.
func (v *Validator) Validate(clientID, clientSecret string) error {
	if c, ok := v.registry.Get(clientID); ok {
		if constantTimeEqual(c.ID, clientID) && constantTimeEqual(c.Secret, clientSecret) {
			return nil
		}
	}
	if constantTimeEqual(v.staticClientID, clientID) && constantTimeEqual(v.staticClientSecret, clientSecret) {
		return nil
	}
	return ErrInvalidCredentials
}

// constantTimeEqual compares two strings in constant time. Unequal
// lengths are rejected up front (length itself is not a secret), but
// the byte comparison never short-circuits on the first mismatch.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
