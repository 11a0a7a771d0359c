package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"

	"donationFulfillment/internal/auth"
	"donationFulfillment/internal/db"
)

// OpenTestDB opens a SQLite database in a per-test temp directory and applies
// migrations. The file is removed with the temp dir when the test finishes.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// GenerateJWTHS256 returns a signed JWT string with the claims the app reads.
func GenerateJWTHS256(t *testing.T, secret, name, kind string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"name": name,
		"kind": kind,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxAs returns a context authenticated as the given principal.
func CtxAs(ctx context.Context, name, kind string) context.Context {
	return auth.WithPrincipal(ctx, &auth.Principal{Name: name, Kind: kind})
}
