package repository

import (
	"context"
	"testing"
	"time"

	"donationFulfillment/models"
)

func TestOfferResolveIfLinearizes(t *testing.T) {
	d := openTestDB(t)
	users := NewUserRepository(d)
	vols := NewVolunteerRepository(d)
	donations := NewDonationRepository(d)
	repo := NewOfferRepository(d)
	ctx := context.Background()

	donor, _ := users.Create(ctx, &models.User{Username: "donor", Role: models.RoleDonor})
	recipient, _ := users.Create(ctx, &models.User{Username: "rec", Role: models.RoleRecipient})
	v := seedVolunteer(t, vols, "vicky", 50, true)
	dn := seedDonation(t, d, donations, donor.ID, recipient.ID)

	offer, err := repo.Create(ctx, &models.Offer{
		DonationID:  dn.ID,
		VolunteerID: v.ID,
		Rank:        1,
		ExpiresAt:   time.Now().UTC().Add(time.Minute).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if offer.Outcome != models.OfferPending {
		t.Fatalf("expected pending default, got %s", offer.Outcome)
	}

	got, _ := repo.GetPendingByDonation(ctx, dn.ID)
	if got == nil || got.ID != offer.ID {
		t.Fatalf("expected pending offer %d, got %v", offer.ID, got)
	}

	won, err := repo.ResolveIf(ctx, offer.ID, models.OfferAccepted)
	if err != nil || !won {
		t.Fatalf("first resolve should win, got %v / %v", won, err)
	}

	// Any later resolution loses, whatever the outcome.
	won, err = repo.ResolveIf(ctx, offer.ID, models.OfferExpired)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if won {
		t.Error("second resolve must lose")
	}

	got, _ = repo.GetByID(ctx, offer.ID)
	if got.Outcome != models.OfferAccepted {
		t.Errorf("expected accepted to stick, got %s", got.Outcome)
	}
	if p, _ := repo.GetPendingByDonation(ctx, dn.ID); p != nil {
		t.Errorf("no offer should be pending, got %+v", p)
	}
}

func TestOfferUniquePerVolunteer(t *testing.T) {
	d := openTestDB(t)
	users := NewUserRepository(d)
	vols := NewVolunteerRepository(d)
	donations := NewDonationRepository(d)
	repo := NewOfferRepository(d)
	ctx := context.Background()

	donor, _ := users.Create(ctx, &models.User{Username: "donor", Role: models.RoleDonor})
	recipient, _ := users.Create(ctx, &models.User{Username: "rec", Role: models.RoleRecipient})
	v := seedVolunteer(t, vols, "vicky", 50, true)
	dn := seedDonation(t, d, donations, donor.ID, recipient.ID)

	expires := time.Now().UTC().Add(time.Minute).Format(time.RFC3339)
	if _, err := repo.Create(ctx, &models.Offer{DonationID: dn.ID, VolunteerID: v.ID, Rank: 1, ExpiresAt: expires}); err != nil {
		t.Fatalf("create offer: %v", err)
	}

	// The schema itself refuses a repeat offer to the same volunteer.
	if _, err := repo.Create(ctx, &models.Offer{DonationID: dn.ID, VolunteerID: v.ID, Rank: 2, ExpiresAt: expires}); err == nil {
		t.Error("expected unique constraint violation on repeat offer")
	}
}

func TestOfferSequenceAndPendingListing(t *testing.T) {
	d := openTestDB(t)
	users := NewUserRepository(d)
	vols := NewVolunteerRepository(d)
	donations := NewDonationRepository(d)
	repo := NewOfferRepository(d)
	ctx := context.Background()

	donor, _ := users.Create(ctx, &models.User{Username: "donor", Role: models.RoleDonor})
	recipient, _ := users.Create(ctx, &models.User{Username: "rec", Role: models.RoleRecipient})
	v1 := seedVolunteer(t, vols, "v1", 50, true)
	v2 := seedVolunteer(t, vols, "v2", 50, true)
	dn := seedDonation(t, d, donations, donor.ID, recipient.ID)

	expires := time.Now().UTC().Add(time.Minute).Format(time.RFC3339)
	first, _ := repo.Create(ctx, &models.Offer{DonationID: dn.ID, VolunteerID: v1.ID, Rank: 1, ExpiresAt: expires})
	if _, err := repo.ResolveIf(ctx, first.ID, models.OfferRejected); err != nil {
		t.Fatalf("resolve first: %v", err)
	}
	if _, err := repo.Create(ctx, &models.Offer{DonationID: dn.ID, VolunteerID: v2.ID, Rank: 2, ExpiresAt: expires}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	seq, err := repo.ListByDonation(ctx, dn.ID)
	if err != nil || len(seq) != 2 {
		t.Fatalf("expected 2 offers, got %d (%v)", len(seq), err)
	}
	if seq[0].VolunteerID != v1.ID || seq[1].VolunteerID != v2.ID {
		t.Errorf("sequence out of order: %+v", seq)
	}

	ids, err := repo.OfferedVolunteerIDs(ctx, dn.ID)
	if err != nil || len(ids) != 2 || ids[0] != v1.ID || ids[1] != v2.ID {
		t.Errorf("unexpected offered ids: %v (%v)", ids, err)
	}

	pending, err := repo.ListPending(ctx)
	if err != nil || len(pending) != 1 || pending[0].VolunteerID != v2.ID {
		t.Errorf("expected only the second offer pending, got %+v (%v)", pending, err)
	}
}
