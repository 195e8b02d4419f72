package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// TokenClaims is the decoded payload of a session token
type TokenClaims struct {
	UserID    uint
	SessionID uint
	IsGuest   bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenSigner mints and verifies HS256-signed session tokens. The token
// binds user identity, session identity and the guest flag; revocation is
// handled by the storage cross-check in the validator, not here.
type TokenSigner struct {
	key    jwk.Key
	issuer string
}

// NewTokenSigner creates a TokenSigner from the shared secret
func NewTokenSigner(secret []byte, issuer string) (*TokenSigner, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token secret must not be empty")
	}

	key, err := jwk.Import(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to import signing key: %w", err)
	}

	return &TokenSigner{key: key, issuer: issuer}, nil
}

// Sign builds and signs a token for the given user/session pair
func (ts *TokenSigner) Sign(userID, sessionID uint, isGuest bool, ttl time.Duration) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		Subject(strconv.FormatUint(uint64(userID), 10)).
		Issuer(ts.issuer).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim("sid", uint64(sessionID)).
		Claim("guest", isGuest).
		Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), ts.key))
	if err != nil {
		return "", err
	}

	return string(signed), nil
}

// Verify checks signature and expiry and decodes the claims.
// Any failure is reported as ErrTokenInvalid.
func (ts *TokenSigner) Verify(raw string) (*TokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), ts.key),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	sub, ok := token.Subject()
	if !ok {
		return nil, ErrTokenInvalid
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	sessionID, ok := numericClaim(token, "sid")
	if !ok {
		return nil, ErrTokenInvalid
	}

	claims := &TokenClaims{
		UserID:    uint(userID),
		SessionID: sessionID,
	}

	var guestAny any
	if token.Get("guest", &guestAny) == nil {
		if g, ok := guestAny.(bool); ok {
			claims.IsGuest = g
		}
	}

	if iat, ok := token.IssuedAt(); ok {
		claims.IssuedAt = iat
	}
	if exp, ok := token.Expiration(); ok {
		claims.ExpiresAt = exp
	}

	return claims, nil
}

// numericClaim reads an integer claim. JSON unmarshaling may surface the
// value as float64 or as one of the integer types depending on the path
// the token took, so all are accepted.
func numericClaim(token jwt.Token, name string) (uint, bool) {
	var v any
	if token.Get(name, &v) != nil {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		return uint(n), true
	case int64:
		return uint(n), true
	case uint64:
		return uint(n), true
	case int:
		return uint(n), true
	default:
		return 0, false
	}
}
