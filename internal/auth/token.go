package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed payload, wrong algorithm, expiry. Callers get no more detail.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carried by an access token: the subject (user id hex) via
// RegisteredClaims plus the tokenVersion snapshot at mint time.
type Claims struct {
	TokenVersion int64 `json:"v"`
	jwt.RegisteredClaims
}

// Codec mints and verifies HS256 tokens with a fixed validity window.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Mint signs a token for the given subject embedding the current
// tokenVersion. The token is never persisted server-side.
func (c *Codec) Mint(subject string, tokenVersion int64) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks signature and expiry and returns the embedded claims.
func (c *Codec) Verify(raw string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
