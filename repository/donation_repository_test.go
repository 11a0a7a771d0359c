package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"donationFulfillment/models"
)

// seedDonation creates a donation with one 10 kg item line backed by a real
// food item and reservation, satisfying the schema's foreign keys.
func seedDonation(t *testing.T, db *sql.DB, repo *DonationRepository, donorID, recipientID int64) *models.Donation {
	t.Helper()
	ctx := context.Background()
	food := NewFoodRepository(db)
	item := seedFood(t, food, donorID, 10)
	hold, err := food.Reserve(ctx, item.ID, 10)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	d, err := repo.Create(ctx, &models.Donation{
		DonorID:       donorID,
		RecipientID:   recipientID,
		TotalWeightKg: 10,
	}, []models.DonationItem{{FoodItemID: item.ID, Quantity: 10, ReservationID: hold.ID}})
	if err != nil {
		t.Fatalf("create donation: %v", err)
	}
	return d
}

func TestUpdateStatusIfGuards(t *testing.T) {
	d := openTestDB(t)
	users := NewUserRepository(d)
	repo := NewDonationRepository(d)
	ctx := context.Background()

	donor, _ := users.Create(ctx, &models.User{Username: "donor", Role: models.RoleDonor})
	recipient, _ := users.Create(ctx, &models.User{Username: "rec", Role: models.RoleRecipient})
	dn := seedDonation(t, d, repo, donor.ID, recipient.ID)

	if dn.Status != models.DonationStatusPending {
		t.Fatalf("expected pending default, got %s", dn.Status)
	}

	ok, err := repo.UpdateStatusIf(ctx, dn.ID, models.DonationStatusConfirmed, models.DonationStatusPending)
	if err != nil || !ok {
		t.Fatalf("pending -> confirmed should pass, got %v / %v", ok, err)
	}

	// The same guarded move a second time finds the row elsewhere.
	ok, err = repo.UpdateStatusIf(ctx, dn.ID, models.DonationStatusConfirmed, models.DonationStatusPending)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if ok {
		t.Error("repeated transition must report no match")
	}

	// Multi-state guard.
	ok, _ = repo.UpdateStatusIf(ctx, dn.ID, models.DonationStatusCancelled,
		models.DonationStatusPending, models.DonationStatusConfirmed)
	if !ok {
		t.Error("cancel from {pending, confirmed} should match the confirmed row")
	}

	got, _ := repo.GetByID(ctx, dn.ID)
	if got.Status != models.DonationStatusCancelled || !got.IsTerminal() {
		t.Errorf("expected terminal cancelled, got %s", got.Status)
	}
}

func TestAssignVolunteerIfBindsOnce(t *testing.T) {
	d := openTestDB(t)
	users := NewUserRepository(d)
	vols := NewVolunteerRepository(d)
	repo := NewDonationRepository(d)
	ctx := context.Background()

	donor, _ := users.Create(ctx, &models.User{Username: "donor", Role: models.RoleDonor})
	recipient, _ := users.Create(ctx, &models.User{Username: "rec", Role: models.RoleRecipient})
	v1 := seedVolunteer(t, vols, "v1", 50, true)
	v2 := seedVolunteer(t, vols, "v2", 50, true)

	dn := seedDonation(t, d, repo, donor.ID, recipient.ID)
	if _, err := repo.UpdateStatusIf(ctx, dn.ID, models.DonationStatusConfirmed, models.DonationStatusPending); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	ok, err := repo.AssignVolunteerIf(ctx, dn.ID, v1.ID, models.DonationStatusConfirmed)
	if err != nil || !ok {
		t.Fatalf("first assign should pass, got %v / %v", ok, err)
	}

	// A second bind loses: the status moved and a volunteer is set.
	ok, err = repo.AssignVolunteerIf(ctx, dn.ID, v2.ID, models.DonationStatusConfirmed)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if ok {
		t.Error("second assign must report no match")
	}

	got, _ := repo.GetByID(ctx, dn.ID)
	if got.Status != models.DonationStatusAssigned || got.AssignedVolunteer == nil || *got.AssignedVolunteer != v1.ID {
		t.Errorf("expected assigned to %d, got %s / %v", v1.ID, got.Status, got.AssignedVolunteer)
	}

	if err := repo.ClearVolunteer(ctx, dn.ID); err != nil {
		t.Fatalf("clear volunteer: %v", err)
	}
	got, _ = repo.GetByID(ctx, dn.ID)
	if got.AssignedVolunteer != nil {
		t.Error("expected volunteer cleared")
	}
}

func TestDonationMetadataRoundTrip(t *testing.T) {
	d := openTestDB(t)
	users := NewUserRepository(d)
	repo := NewDonationRepository(d)
	ctx := context.Background()

	donor, _ := users.Create(ctx, &models.User{Username: "donor", Role: models.RoleDonor})
	recipient, _ := users.Create(ctx, &models.User{Username: "rec", Role: models.RoleRecipient})
	dn := seedDonation(t, d, repo, donor.ID, recipient.ID)

	if err := repo.SetRating(ctx, dn.ID, 5); err != nil {
		t.Fatalf("set rating: %v", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if err := repo.SetResolvedAt(ctx, dn.ID, now); err != nil {
		t.Fatalf("set resolved_at: %v", err)
	}

	got, _ := repo.GetByID(ctx, dn.ID)
	if got.RecipientRating == nil || *got.RecipientRating != 5 {
		t.Errorf("rating did not round-trip: %v", got.RecipientRating)
	}
	if got.ResolvedAt == nil || *got.ResolvedAt != now {
		t.Errorf("resolved_at did not round-trip: %v", got.ResolvedAt)
	}

	items, err := repo.GetItems(ctx, dn.ID)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected 1 item line, got %d (%v)", len(items), err)
	}
	if items[0].ReservationID == "" {
		t.Error("reservation handle did not round-trip")
	}

	pending, err := repo.ListByStatus(ctx, models.DonationStatusPending)
	if err != nil || len(pending) != 1 {
		t.Errorf("expected 1 pending donation, got %d (%v)", len(pending), err)
	}
}
