// Package token provides issuing and verification of the signed identity
// tokens the gateway hands out at login.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fooddelivery/gateway/internal/auth"
	"github.com/fooddelivery/gateway/internal/util"
)

// DefaultTTL is the default token lifetime.
const DefaultTTL = 24 * time.Hour

// Clock returns the current time. Injectable for deterministic expiry tests.
type Clock func() time.Time

// Issuer issues and verifies identity tokens. Verification is stateless:
// there is no revocation list, and a token valid at issuance stays valid
// until its embedded expiry elapses or the signing key changes.
type Issuer interface {
	// Issue produces a signed token embedding the identity with an
	// absolute expiry of issue time + TTL.
	Issue(identity auth.Identity) (string, error)

	// Verify validates a token and returns the embedded identity. It
	// fails with util.ErrTokenExpired or util.ErrTokenMalformed.
	Verify(token string) (auth.Identity, error)
}

// Claims is the JWT payload carried by issued tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// hmacIssuer implements Issuer with HS256 over a shared signing key.
type hmacIssuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	clock  Clock
}

// Option is a functional option for the issuer.
type Option func(*hmacIssuer)

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(i *hmacIssuer) {
		i.ttl = ttl
	}
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) Option {
	return func(i *hmacIssuer) {
		i.issuer = issuer
	}
}

// WithClock sets the clock used for iat/exp and for expiry validation.
func WithClock(clock Clock) Option {
	return func(i *hmacIssuer) {
		i.clock = clock
	}
}

// NewHMACIssuer creates an HS256 issuer with the given signing key.
func NewHMACIssuer(signingKey string, opts ...Option) (Issuer, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}

	i := &hmacIssuer{
		key:    []byte(signingKey),
		ttl:    DefaultTTL,
		issuer: "food-delivery-gateway",
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i, nil
}

// Issue produces a signed token embedding the identity.
func (i *hmacIssuer) Issue(identity auth.Identity) (string, error) {
	now := i.clock()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.New().String(),
		},
		UserID:   identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		Role:     identity.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the embedded identity.
func (i *hmacIssuer) Verify(tokenString string) (auth.Identity, error) {
	if tokenString == "" {
		return auth.Identity{}, util.ErrTokenMissing
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.Identity{}, util.ErrTokenExpired
		}
		return auth.Identity{}, util.ErrTokenMalformed
	}
	if !parsed.Valid {
		return auth.Identity{}, util.ErrTokenMalformed
	}

	return auth.Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}

// Ensure hmacIssuer implements Issuer.
var _ Issuer = (*hmacIssuer)(nil)
