// Package auth issues and verifies the bearer credentials that guard the
// mutating service routes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"household/internal/domain/account"
)

// Issuer is the iss claim of every token this package mints.
const Issuer = "household"

// DefaultTTL is the lifetime of a token when none is configured.
const DefaultTTL = 12 * time.Hour

// MinSecretLen is the shortest accepted HMAC secret.
const MinSecretLen = 32

var (
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrWeakSecret   = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLen)
)

// Claims are the verified contents of a bearer token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 tokens with one shared secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewSigner returns a Signer. A zero ttl uses DefaultTTL; a nil clock uses the real clock.
func NewSigner(secret []byte, ttl time.Duration, clock clockwork.Clock) (*Signer, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Signer{secret: secret, ttl: ttl, clock: clock}, nil
}

// Issue returns a signed token for subject with role.
// PRE: subject is non-empty, role is a known account role
// POST: the token verifies until now+ttl
func (s *Signer) Issue(subject, role string) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if !account.ValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := s.clock.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and checks signature, algorithm, issuer and expiry.
func (s *Signer) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || !account.ValidRole(claims.Role) {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
