package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"donationFulfillment/internal/auth"
	"donationFulfillment/models"
)

// ItemLine is one requested (food item, quantity) pair.
type ItemLine struct {
	FoodItemID int64
	Quantity   float64
}

// CreateDonationRequest reserves inventory for the given lines and creates a
// donation in 'pending' for the calling recipient. All lines must come from
// the same donor (multi-donor batching is out of scope). A failed line rolls
// back every reservation taken so far, so a rejected request leaks no stock.
func (e *Engine) CreateDonationRequest(ctx context.Context, lines []ItemLine) (*models.Donation, error) {
	p, err := auth.RequireRecipient(ctx)
	if err != nil {
		return nil, err
	}
	recipient, err := e.currentUser(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no item lines: %w", models.ErrInvalidQuantity)
	}

	var donorID int64
	var totalWeight float64
	items := make([]models.DonationItem, 0, len(lines))

	rollback := func() {
		for _, it := range items {
			if err := e.food.Release(ctx, it.ReservationID); err != nil {
				log.Printf("rollback reservation %s: %v", it.ReservationID, err)
			}
		}
	}

	for _, line := range lines {
		item, err := e.food.GetByID(ctx, line.FoodItemID)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("get food item: %w", err)
		}
		if item == nil {
			rollback()
			return nil, fmt.Errorf("food item %d: %w", line.FoodItemID, models.ErrNotFound)
		}
		if donorID == 0 {
			donorID = item.DonorID
		} else if item.DonorID != donorID {
			rollback()
			return nil, fmt.Errorf("items span multiple donors: %w", models.ErrInvalidQuantity)
		}

		hold, err := e.food.Reserve(ctx, line.FoodItemID, line.Quantity)
		if err != nil {
			rollback()
			return nil, err
		}
		items = append(items, models.DonationItem{
			FoodItemID:    line.FoodItemID,
			Quantity:      line.Quantity,
			ReservationID: hold.ID,
		})
		totalWeight += line.Quantity
	}

	d := &models.Donation{
		DonorID:       donorID,
		RecipientID:   recipient.ID,
		Status:        models.DonationStatusPending,
		TotalWeightKg: totalWeight,
	}
	d, err = e.donations.Create(ctx, d, items)
	if err != nil {
		rollback()
		return nil, fmt.Errorf("create donation: %w", err)
	}
	return d, nil
}

// ConfirmDonation is the donor's approval: the donation moves to 'confirmed'
// and the first matching round starts.
func (e *Engine) ConfirmDonation(ctx context.Context, donationID int64) (*models.Donation, error) {
	p, err := auth.RequireDonor(ctx)
	if err != nil {
		return nil, err
	}
	donor, err := e.currentUser(ctx, p)
	if err != nil {
		return nil, err
	}

	unlock := e.lockDonation(donationID)
	defer unlock()

	d, err := e.getDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.DonorID != donor.ID {
		return nil, fmt.Errorf("donation %d is not owned by donor %d: %w", donationID, donor.ID, models.ErrUnauthorized)
	}

	ok, err := e.donations.UpdateStatusIf(ctx, donationID, models.DonationStatusConfirmed, models.DonationStatusPending)
	if err != nil {
		return nil, fmt.Errorf("confirm donation: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("donation %d is %s, not pending: %w", donationID, d.Status, models.ErrInvalidTransition)
	}

	if err := e.offerNext(ctx, donationID); err != nil {
		log.Printf("start cascade for donation %d: %v", donationID, err)
	}
	return e.getDonation(ctx, donationID)
}

// CancelDonation cancels a not-yet-delivered donation on behalf of its donor
// or recipient. A pending offer is invalidated immediately, a bound
// volunteer is freed, and all reserved stock goes back to the ledger.
func (e *Engine) CancelDonation(ctx context.Context, donationID int64) (*models.Donation, error) {
	p, err := auth.RequireDonorOrRecipient(ctx)
	if err != nil {
		return nil, err
	}
	caller, err := e.currentUser(ctx, p)
	if err != nil {
		return nil, err
	}

	unlock := e.lockDonation(donationID)
	defer unlock()

	d, err := e.getDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.DonorID != caller.ID && d.RecipientID != caller.ID {
		return nil, fmt.Errorf("donation %d is not party to user %d: %w", donationID, caller.ID, models.ErrUnauthorized)
	}

	ok, err := e.donations.UpdateStatusIf(ctx, donationID, models.DonationStatusCancelled, cancellableStatuses...)
	if err != nil {
		return nil, fmt.Errorf("cancel donation: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("donation %d is %s: %w", donationID, d.Status, models.ErrInvalidTransition)
	}

	// No response will ever arrive for an in-flight offer.
	offer, err := e.offers.GetPendingByDonation(ctx, donationID)
	if err != nil {
		log.Printf("pending offer for donation %d: %v", donationID, err)
	} else if offer != nil {
		if _, err := e.offers.ResolveIf(ctx, offer.ID, models.OfferExpired); err != nil {
			log.Printf("invalidate offer %d: %v", offer.ID, err)
		}
		e.stopOfferTimer(offer.ID)
	}

	if d.AssignedVolunteer != nil {
		if err := e.volunteers.DecrementActive(ctx, *d.AssignedVolunteer); err != nil {
			log.Printf("decrement active for volunteer %d: %v", *d.AssignedVolunteer, err)
		}
		if err := e.donations.ClearVolunteer(ctx, donationID); err != nil {
			log.Printf("clear volunteer on donation %d: %v", donationID, err)
		}
	}

	if err := e.releaseDonationStock(ctx, donationID); err != nil {
		return nil, err
	}
	if err := e.donations.SetResolvedAt(ctx, donationID, e.clock.Now().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("stamp resolution: %w", err)
	}
	return e.getDonation(ctx, donationID)
}

// releaseDonationStock releases every reservation held by the donation's
// item lines. Released amounts exactly equal reserved amounts: the handles
// are single-use, so a retry cannot over-credit.
func (e *Engine) releaseDonationStock(ctx context.Context, donationID int64) error {
	items, err := e.donations.GetItems(ctx, donationID)
	if err != nil {
		return fmt.Errorf("donation items: %w", err)
	}
	for _, it := range items {
		if err := e.food.Release(ctx, it.ReservationID); err != nil {
			return fmt.Errorf("release reservation %s: %w", it.ReservationID, err)
		}
	}
	return nil
}

// MarkPickedUp records that the assigned volunteer collected the food.
func (e *Engine) MarkPickedUp(ctx context.Context, donationID int64) (*models.Donation, error) {
	return e.volunteerTransition(ctx, donationID, models.DonationStatusPickedUp, models.DonationStatusAssigned)
}

// MarkInTransit is a cosmetic alias state after picked_up; it carries no
// extra guard beyond the assigned-volunteer identity.
func (e *Engine) MarkInTransit(ctx context.Context, donationID int64) (*models.Donation, error) {
	return e.volunteerTransition(ctx, donationID, models.DonationStatusInTransit, models.DonationStatusPickedUp)
}

// MarkDelivered records the drop-off. The volunteer's active assignment slot
// frees up here, making them eligible for new offers again.
func (e *Engine) MarkDelivered(ctx context.Context, donationID int64) (*models.Donation, error) {
	d, err := e.volunteerTransition(ctx, donationID, models.DonationStatusDelivered,
		models.DonationStatusPickedUp, models.DonationStatusInTransit)
	if err != nil {
		return nil, err
	}
	if d.AssignedVolunteer != nil {
		if err := e.volunteers.DecrementActive(ctx, *d.AssignedVolunteer); err != nil {
			log.Printf("decrement active for volunteer %d: %v", *d.AssignedVolunteer, err)
		}
	}
	return d, nil
}

// volunteerTransition performs a status move that only the donation's
// assigned volunteer may trigger.
func (e *Engine) volunteerTransition(ctx context.Context, donationID int64, to models.DonationStatus, from ...models.DonationStatus) (*models.Donation, error) {
	p, err := auth.RequireVolunteer(ctx)
	if err != nil {
		return nil, err
	}
	vol, err := e.currentVolunteer(ctx, p)
	if err != nil {
		return nil, err
	}

	unlock := e.lockDonation(donationID)
	defer unlock()

	d, err := e.getDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.AssignedVolunteer == nil || *d.AssignedVolunteer != vol.ID {
		return nil, fmt.Errorf("donation %d is not assigned to volunteer %d: %w", donationID, vol.ID, models.ErrUnauthorized)
	}

	ok, err := e.donations.UpdateStatusIf(ctx, donationID, to, from...)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("donation %d is %s: %w", donationID, d.Status, models.ErrInvalidTransition)
	}
	return e.getDonation(ctx, donationID)
}

// ConfirmReceipt is the recipient's sign-off: the donation completes, the
// rating persists, and the volunteer's rolling rating absorbs it.
func (e *Engine) ConfirmReceipt(ctx context.Context, donationID int64, rating int64) (*models.Donation, error) {
	p, err := auth.RequireRecipient(ctx)
	if err != nil {
		return nil, err
	}
	recipient, err := e.currentUser(ctx, p)
	if err != nil {
		return nil, err
	}
	if rating < 0 || rating > 5 {
		return nil, fmt.Errorf("rating %d: %w", rating, models.ErrInvalidRating)
	}

	unlock := e.lockDonation(donationID)
	defer unlock()

	d, err := e.getDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.RecipientID != recipient.ID {
		return nil, fmt.Errorf("donation %d does not belong to recipient %d: %w", donationID, recipient.ID, models.ErrUnauthorized)
	}

	prior := d.Status
	ok, err := e.donations.UpdateStatusIf(ctx, donationID, models.DonationStatusCompleted, receiptStatuses...)
	if err != nil {
		return nil, fmt.Errorf("complete donation: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("donation %d is %s: %w", donationID, d.Status, models.ErrInvalidTransition)
	}

	if err := e.donations.SetRating(ctx, donationID, rating); err != nil {
		return nil, fmt.Errorf("persist rating: %w", err)
	}
	if err := e.donations.SetResolvedAt(ctx, donationID, e.clock.Now().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("stamp resolution: %w", err)
	}
	if d.AssignedVolunteer != nil {
		// The delivered transition already freed the slot; completing
		// straight from picked_up/in_transit frees it here.
		if prior != models.DonationStatusDelivered {
			if err := e.volunteers.DecrementActive(ctx, *d.AssignedVolunteer); err != nil {
				log.Printf("decrement active for volunteer %d: %v", *d.AssignedVolunteer, err)
			}
		}
		if err := e.volunteers.AddRating(ctx, *d.AssignedVolunteer, rating); err != nil {
			return nil, fmt.Errorf("update volunteer rating: %w", err)
		}
	}
	return e.getDonation(ctx, donationID)
}

// ToggleAvailability flips the calling volunteer's availability flag and
// returns the new value. The flip affects future matching rounds only; an
// offer already issued to the volunteer stays pending.
func (e *Engine) ToggleAvailability(ctx context.Context) (bool, error) {
	p, err := auth.RequireVolunteer(ctx)
	if err != nil {
		return false, err
	}
	vol, err := e.currentVolunteer(ctx, p)
	if err != nil {
		return false, err
	}
	next := !vol.IsAvailable
	if err := e.volunteers.SetAvailability(ctx, vol.ID, next); err != nil {
		return false, fmt.Errorf("set availability: %w", err)
	}
	return next, nil
}
