// Package token implements JWT issuance and validation for the
// client_credentials and authorization_code grants, via
// golang-jwt/jwt/v5 over a shared HS256 secret.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/olifog/yamos/internal/yerr"
)

// Issuer is the fixed "iss" claim value stamped on every issued token.
const Issuer = "yamos"

// Response mirrors the OAuth token endpoint's JSON response shape.
type Response struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// Claims is the gateway's JWT claim set.
type Claims struct {
	jwt.RegisteredClaims
}

// Service issues and validates HS256 JWTs over a shared secret.
type Service struct {
	secret   []byte
	lifetime time.Duration // 0 means tokens never expire
}

// New builds a Service. A zero lifetime means issued tokens carry no
// "exp" claim.
func New(secret string, lifetime time.Duration) *Service {
	return &Service{secret: []byte(secret), lifetime: lifetime}
}

// Issue mints a fresh JWT for clientID.
func (s *Service) Issue(clientID string) (Response, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  clientID,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
			Issuer:   Issuer,
		},
	}

	var expiresIn int64
	if s.lifetime != 0 {
		exp := now.Add(s.lifetime)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
		expiresIn = int64(s.lifetime.Seconds())
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return Response{}, yerr.Wrap(yerr.BackendError, "sign access token", err)
	}

	return Response{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	}, nil
}

// ErrInvalidToken is the single opaque error returned for any
// validation failure.
var ErrInvalidToken = yerr.New(yerr.InvalidToken, "invalid token")

// Validate decodes and verifies an HS256 token, requiring a non-empty
// subject, a present "iat", and (if present) an unexpired "exp" judged
// with the library's default clock skew, plus a matching issuer.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
