package auth

import (
	"testing"
)

func TestSignAndParseBearer(t *testing.T) {
	const secret = "test-secret"
	token, err := SignHS256(&Principal{Name: "alice", Kind: "Donor"}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	p, err := ParseBearer("Bearer "+token, secret)
	if err != nil {
		t.Fatalf("parse bearer: %v", err)
	}
	if p.Name != "alice" {
		t.Errorf("expected name alice, got %s", p.Name)
	}
	if p.Kind != "donor" {
		t.Errorf("kind should be lowercased, got %s", p.Kind)
	}

	// bearer keyword is case-insensitive
	if _, err := ParseBearer("bearer "+token, secret); err != nil {
		t.Errorf("lowercase bearer should parse: %v", err)
	}
}

func TestParseBearerRejectsBadInput(t *testing.T) {
	const secret = "test-secret"
	token, err := SignHS256(&Principal{Name: "alice", Kind: "donor"}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := []struct {
		name   string
		header string
		secret string
	}{
		{"wrong secret", "Bearer " + token, "other-secret"},
		{"no scheme", token, secret},
		{"wrong scheme", "Basic " + token, secret},
		{"garbage token", "Bearer not.a.jwt", secret},
		{"empty secret", "Bearer " + token, ""},
	}
	for _, c := range cases {
		if _, err := ParseBearer(c.header, c.secret); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestSignRequiresSecret(t *testing.T) {
	if _, err := SignHS256(&Principal{Name: "alice", Kind: "donor"}, ""); err == nil {
		t.Error("expected error for empty secret")
	}
}
