package auth

import (
	"context"
	"errors"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Principal represents the authenticated caller from JWT.
type Principal struct {
	Name string // username for donors/recipients/admins, volunteer name for volunteers
	Kind string // "donor" | "recipient" | "volunteer" | "admin"
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// ParseBearer extracts and validates a Bearer JWT from an Authorization
// header value and returns a Principal.
func ParseBearer(header, secret string) (*Principal, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid authorization header")
	}
	return parseJWT(strings.TrimSpace(parts[1]), secret)
}

// parseJWT validates and extracts claims from a JWT token.
func parseJWT(tokenStr string, secret string) (*Principal, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	type claims struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
		jwt.RegisteredClaims
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*claims)
	if c == nil || c.Name == "" || c.Kind == "" {
		return nil, errors.New("invalid claims")
	}
	return &Principal{Name: c.Name, Kind: strings.ToLower(c.Kind)}, nil
}

// SignHS256 issues a token for the given principal.
func SignHS256(p *Principal, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	claims := jwt.MapClaims{"name": p.Name, "kind": p.Kind}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
