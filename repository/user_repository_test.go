package repository

import (
	"context"
	"testing"

	"donationFulfillment/models"
)

func TestUserCreateAndFetch(t *testing.T) {
	d := openTestDB(t)
	repo := NewUserRepository(d)
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{Username: "alice"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Role != models.RoleDonor {
		t.Errorf("expected donor default role, got %s", u.Role)
	}

	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("get by username: %v / %v", got, err)
	}
	if got.Lat != nil || got.Lng != nil {
		t.Error("fresh user should have no location")
	}

	if err := repo.SetLocation(ctx, u.ID, 40.2, 29.3); err != nil {
		t.Fatalf("set location: %v", err)
	}
	got, _ = repo.GetByID(ctx, u.ID)
	if got.Lat == nil || *got.Lat != 40.2 || got.Lng == nil || *got.Lng != 29.3 {
		t.Errorf("location did not round-trip: %v / %v", got.Lat, got.Lng)
	}

	// Unknown lookups return nil, not an error.
	missing, err := repo.GetByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown user, got %v / %v", missing, err)
	}

	// Usernames are unique.
	if _, err := repo.Create(ctx, &models.User{Username: "alice"}); err == nil {
		t.Error("expected unique constraint violation on duplicate username")
	}
}
