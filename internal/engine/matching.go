package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"donationFulfillment/internal/auth"
	"donationFulfillment/models"
)

// offerNext runs one round of the cascade for a confirmed donation: rank the
// remaining eligible volunteers, offer the top candidate, arm the expiry
// timer. When nobody is left the donation escalates to manual assignment.
// Offers for one donation are strictly sequential; the caller must hold the
// donation lock.
func (e *Engine) offerNext(ctx context.Context, donationID int64) error {
	d, err := e.getDonation(ctx, donationID)
	if err != nil {
		return err
	}
	if d.Status != models.DonationStatusConfirmed {
		// Donation moved on (accepted, cancelled, escalated) while this
		// round was queued; nothing to do.
		return nil
	}

	offered, err := e.offers.OfferedVolunteerIDs(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("offered volunteers: %w", err)
	}
	eligible, err := e.volunteers.ListEligible(ctx, d.TotalWeightKg, e.maxActive, offered)
	if err != nil {
		return fmt.Errorf("eligible volunteers: %w", err)
	}
	if len(eligible) == 0 {
		return e.exhaustCascade(ctx, d, offered)
	}

	donor, err := e.users.GetByID(ctx, d.DonorID)
	if err != nil {
		return fmt.Errorf("get donor: %w", err)
	}
	recipient, err := e.users.GetByID(ctx, d.RecipientID)
	if err != nil {
		return fmt.Errorf("get recipient: %w", err)
	}

	ranked := rankCandidates(donor, recipient, eligible)
	top := ranked[0].Volunteer

	offer := &models.Offer{
		DonationID:  d.ID,
		VolunteerID: top.ID,
		Rank:        len(offered) + 1,
		Outcome:     models.OfferPending,
		ExpiresAt:   e.clock.Now().Add(e.offerTTL).Format(time.RFC3339),
	}
	offer, err = e.offers.Create(ctx, offer)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	e.armOfferTimer(offer.ID, e.offerTTL)

	if err := e.notifier.OfferCreated(ctx, offer, d); err != nil {
		log.Printf("notify offer %d: %v", offer.ID, err)
	}
	return nil
}

// exhaustCascade moves a confirmed donation to pending_manual_assignment and
// alerts the admins. Exhaustion is a designed sub-state, not a failure.
func (e *Engine) exhaustCascade(ctx context.Context, d *models.Donation, attempted []int64) error {
	ok, err := e.donations.UpdateStatusIf(ctx, d.ID, models.DonationStatusManual, models.DonationStatusConfirmed)
	if err != nil {
		return fmt.Errorf("escalate donation: %w", err)
	}
	if !ok {
		return nil
	}
	d.Status = models.DonationStatusManual
	log.Printf("donation %d: %v after %d offers, escalating to manual assignment", d.ID, models.ErrNoEligibleVolunteer, len(attempted))
	if err := e.notifier.CascadeExhausted(ctx, d, attempted); err != nil {
		log.Printf("notify exhaustion for donation %d: %v", d.ID, err)
	}
	return nil
}

// AcceptOffer lets the targeted volunteer claim the donation's pending offer.
// Exactly one accept wins against concurrent accepts, rejects, and the expiry
// timer; losers get ErrOfferNoLongerValid and are not re-entered into the
// cascade.
func (e *Engine) AcceptOffer(ctx context.Context, donationID int64) (*models.Donation, error) {
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

	offer, err := e.offers.GetPendingByDonation(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("pending offer: %w", err)
	}
	if offer == nil {
		return nil, fmt.Errorf("donation %d has no pending offer: %w", donationID, models.ErrOfferNoLongerValid)
	}
	if offer.VolunteerID != vol.ID {
		return nil, fmt.Errorf("offer %d is not addressed to volunteer %d: %w", offer.ID, vol.ID, models.ErrUnauthorized)
	}

	// Claim an assignment slot before resolving the offer, so accepts racing
	// across different donations cannot push the volunteer over the cap. A
	// full volunteer forfeits the offer and the cascade moves on.
	claimed, err := e.volunteers.IncrementActiveIf(ctx, vol.ID, e.maxActive)
	if err != nil {
		return nil, fmt.Errorf("claim assignment slot: %w", err)
	}
	if !claimed {
		won, err := e.offers.ResolveIf(ctx, offer.ID, models.OfferExpired)
		if err != nil {
			log.Printf("forfeit offer %d: %v", offer.ID, err)
		}
		if won {
			e.stopOfferTimer(offer.ID)
			if err := e.offerNext(ctx, donationID); err != nil {
				log.Printf("advance cascade for donation %d: %v", donationID, err)
			}
		}
		return nil, fmt.Errorf("volunteer %d is at the assignment cap: %w", vol.ID, models.ErrOfferNoLongerValid)
	}

	won, err := e.offers.ResolveIf(ctx, offer.ID, models.OfferAccepted)
	if err != nil {
		e.releaseSlot(ctx, vol.ID)
		return nil, fmt.Errorf("accept offer: %w", err)
	}
	if !won {
		e.releaseSlot(ctx, vol.ID)
		return nil, fmt.Errorf("offer %d already resolved: %w", offer.ID, models.ErrOfferNoLongerValid)
	}
	e.stopOfferTimer(offer.ID)

	bound, err := e.donations.AssignVolunteerIf(ctx, donationID, vol.ID, models.DonationStatusConfirmed)
	if err != nil {
		e.releaseSlot(ctx, vol.ID)
		return nil, fmt.Errorf("assign volunteer: %w", err)
	}
	if !bound {
		e.releaseSlot(ctx, vol.ID)
		return nil, fmt.Errorf("donation %d not confirmed: %w", donationID, models.ErrInvalidTransition)
	}

	d, err := e.getDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if err := e.notifier.VolunteerAssigned(ctx, d, vol.ID); err != nil {
		log.Printf("notify assignment for donation %d: %v", d.ID, err)
	}
	return d, nil
}

// releaseSlot gives back an assignment slot claimed by a failed accept.
func (e *Engine) releaseSlot(ctx context.Context, volunteerID int64) {
	if err := e.volunteers.DecrementActive(ctx, volunteerID); err != nil {
		log.Printf("release assignment slot for volunteer %d: %v", volunteerID, err)
	}
}

// RejectOffer records the targeted volunteer's explicit rejection and
// immediately advances the cascade to the next candidate.
func (e *Engine) RejectOffer(ctx context.Context, donationID int64) error {
	p, err := auth.RequireVolunteer(ctx)
	if err != nil {
		return err
	}
	vol, err := e.currentVolunteer(ctx, p)
	if err != nil {
		return err
	}

	unlock := e.lockDonation(donationID)
	defer unlock()

	offer, err := e.offers.GetPendingByDonation(ctx, donationID)
	if err != nil {
		return fmt.Errorf("pending offer: %w", err)
	}
	if offer == nil {
		return fmt.Errorf("donation %d has no pending offer: %w", donationID, models.ErrOfferNoLongerValid)
	}
	if offer.VolunteerID != vol.ID {
		return fmt.Errorf("offer %d is not addressed to volunteer %d: %w", offer.ID, vol.ID, models.ErrUnauthorized)
	}

	won, err := e.offers.ResolveIf(ctx, offer.ID, models.OfferRejected)
	if err != nil {
		return fmt.Errorf("reject offer: %w", err)
	}
	if !won {
		return fmt.Errorf("offer %d already resolved: %w", offer.ID, models.ErrOfferNoLongerValid)
	}
	e.stopOfferTimer(offer.ID)

	return e.offerNext(ctx, donationID)
}

// handleOfferTimeout fires from the offer's expiry timer. Whichever of
// accept/reject/timeout resolves the pending offer first wins; the rest are
// no-ops.
func (e *Engine) handleOfferTimeout(offerID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	offer, err := e.offers.GetByID(ctx, offerID)
	if err != nil {
		log.Printf("offer %d timeout: %v", offerID, err)
		return
	}
	if offer == nil || offer.Outcome != models.OfferPending {
		e.stopOfferTimer(offerID)
		return
	}

	unlock := e.lockDonation(offer.DonationID)
	defer unlock()

	won, err := e.offers.ResolveIf(ctx, offerID, models.OfferExpired)
	if err != nil {
		log.Printf("offer %d timeout: %v", offerID, err)
		return
	}
	e.stopOfferTimer(offerID)
	if !won {
		return
	}
	if err := e.offerNext(ctx, offer.DonationID); err != nil {
		log.Printf("advance cascade for donation %d: %v", offer.DonationID, err)
	}
}

// OfferSequence returns a donation's full offer audit trail in issue order.
// Visible to the donation's parties and admins.
func (e *Engine) OfferSequence(ctx context.Context, donationID int64) ([]models.Offer, error) {
	if _, err := auth.RequirePrincipal(ctx); err != nil {
		return nil, err
	}
	return e.offers.ListByDonation(ctx, donationID)
}
