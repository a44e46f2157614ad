// Package token implements the signed access-token codec and the opaque
// refresh-token generator.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is returned when a token is malformed, unsigned, or
	// signed with the wrong key or algorithm. Treated as hostile input.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is well-formed and correctly
	// signed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// PurposePasswordReset marks single-use tokens minted for the password-reset
// flow. Access tokens carry an empty purpose; the request middleware rejects
// any token whose purpose is non-empty.
const PurposePasswordReset = "password_reset"

// Identity is the public user identity embedded in signed tokens.
type Identity struct {
	SubjectID string
	Name      string
	Email     string
}

// Claims holds the JWT claims for tokens signed by the Codec.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the identity fields carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{SubjectID: c.Subject, Name: c.Name, Email: c.Email}
}

// Codec signs, verifies, and decodes HS256 access tokens using a shared secret.
// The secret is injected at construction and immutable afterwards; Codec is
// stateless and safe for concurrent use.
type Codec struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
}

// NewCodec returns a Codec signing with the given shared secret.
// defaultTTL is used by Sign when no explicit ttl is given.
func NewCodec(secret []byte, issuer string, defaultTTL time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret must not be empty")
	}
	if defaultTTL <= 0 {
		return nil, errors.New("token: default TTL must be positive")
	}
	return &Codec{secret: secret, issuer: issuer, defaultTTL: defaultTTL}, nil
}

// Sign mints a signed access token for id. ttl <= 0 uses the configured
// default. Returns the compact token and its expiry.
func (c *Codec) Sign(id Identity, ttl time.Duration) (string, time.Time, error) {
	return c.sign(id, "", ttl)
}

// SignPurpose mints a signed single-use token (e.g. password reset) carrying
// the given purpose. Purpose-bearing tokens are never accepted as access tokens.
func (c *Codec) SignPurpose(id Identity, purpose string, ttl time.Duration) (string, time.Time, error) {
	return c.sign(id, purpose, ttl)
}

func (c *Codec) sign(id Identity, purpose string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Name:    id.Name,
		Email:   id.Email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates the token's signature and expiry. Returns ErrTokenExpired
// when the only defect is a past exp, and ErrTokenInvalid for everything else
// (bad signature, wrong algorithm, malformed structure, wrong issuer).
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.issuer != "" {
		options = append(options, jwt.WithIssuer(c.issuer))
	}
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		// Expiry is only reported when the signature checked out; a tampered
		// token must surface as invalid even if it is also stale.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Decode parses the token's claims without verifying signature or expiry.
// Returns nil on malformed input; never returns an error. Callers must only
// use the result to decide whether a formal renewal should be attempted,
// never to authorize an action.
func (c *Codec) Decode(tokenStr string) *Claims {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return nil
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
