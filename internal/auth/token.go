package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every token failure: bad signature, malformed
// payload, missing subject, elapsed expiry. Callers must not learn which.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenConfig carries the signing material for the token service.
// It is injected explicitly; the service never reads ambient state.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// TokenService issues and validates HMAC-signed bearer tokens. A token is
// valid purely as a function of its signature and time window; there is no
// revocation list.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(cfg TokenConfig) *TokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &TokenService{
		secret: []byte(strings.TrimSpace(cfg.Secret)),
		ttl:    ttl,
	}
}

// Issue creates a signed token for the subject. An optional single ttl
// argument overrides the configured default.
func (s *TokenService) Issue(subject string, ttl ...time.Duration) (string, error) {
	expiry := s.ttl
	if len(ttl) > 0 {
		expiry = ttl[0]
	}

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Decode verifies signature, algorithm and expiry, then returns the subject.
// The parser only accepts HS256, so a token re-signed under another
// algorithm identifier fails even with a valid structure.
func (s *TokenService) Decode(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
