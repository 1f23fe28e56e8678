package oidc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/vizflow/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken wraps every token rejection
var ErrInvalidToken = errors.New("invalid token")

// Verifier verifies JWT bearer tokens against one issuer's key set
type Verifier struct {
	keys     *KeyCache
	jwksURL  string
	issuer   string
	audience string
	skew     time.Duration
	// an unknown kid triggers a refetch only when the cached set is at least this old
	minRefresh time.Duration
}

// NewVerifier creates a new JWT verifier. audience may be empty to skip the aud check.
func NewVerifier(keys *KeyCache, jwksURL, issuer, audience string) *Verifier {
	return &Verifier{
		keys:       keys,
		jwksURL:    jwksURL,
		issuer:     issuer,
		audience:   audience,
		skew:       30 * time.Second,
		minRefresh: time.Minute,
	}
}

// Verify verifies a JWT token and extracts claims
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	keys, err := v.keySetFor(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAcceptableSkew(v.skew),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
	}
	if exp := token.Expiration(); !exp.IsZero() {
		claims.Exp = exp.Unix()
	}
	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims, nil
}

// keySetFor returns the cached key set, refetching once if the token names a kid it lacks
func (v *Verifier) keySetFor(ctx context.Context, tokenString string) (jwk.Set, error) {
	keys, err := v.keys.Keys(ctx, v.jwksURL)
	if err != nil {
		return nil, err
	}
	kid := tokenKeyID(tokenString)
	if kid == "" {
		return keys, nil
	}
	if _, ok := keys.LookupKeyID(kid); ok {
		return keys, nil
	}
	if !v.keys.InvalidateOlderThan(v.jwksURL, v.minRefresh) {
		return keys, nil
	}
	return v.keys.Keys(ctx, v.jwksURL)
}

func tokenKeyID(tokenString string) string {
	msg, err := jws.Parse([]byte(tokenString))
	if err != nil || len(msg.Signatures()) == 0 {
		return ""
	}
	return msg.Signatures()[0].ProtectedHeaders().KeyID()
}
