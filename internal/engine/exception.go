package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"donationFulfillment/internal/auth"
	"donationFulfillment/models"
)

// ManuallyAssign binds an admin-chosen volunteer to a donation stuck in
// pending_manual_assignment. Admin judgment overrides scoring: the ranking
// algorithm does not run, and the donation proceeds exactly as if the
// cascade had succeeded.
func (e *Engine) ManuallyAssign(ctx context.Context, donationID, volunteerID int64) (*models.Donation, error) {
	if _, err := auth.RequireAdmin(ctx, e.users); err != nil {
		return nil, err
	}

	vol, err := e.volunteers.GetByID(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("get volunteer: %w", err)
	}
	if vol == nil {
		return nil, fmt.Errorf("volunteer %d: %w", volunteerID, models.ErrNotFound)
	}

	unlock := e.lockDonation(donationID)
	defer unlock()

	d, err := e.getDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	bound, err := e.donations.AssignVolunteerIf(ctx, donationID, volunteerID, models.DonationStatusManual)
	if err != nil {
		return nil, fmt.Errorf("assign volunteer: %w", err)
	}
	if !bound {
		return nil, fmt.Errorf("donation %d is %s, not pending manual assignment: %w", donationID, d.Status, models.ErrInvalidTransition)
	}
	if err := e.volunteers.IncrementActive(ctx, volunteerID); err != nil {
		return nil, fmt.Errorf("increment active: %w", err)
	}

	d, err = e.getDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if err := e.notifier.VolunteerAssigned(ctx, d, volunteerID); err != nil {
		log.Printf("notify assignment for donation %d: %v", d.ID, err)
	}
	return d, nil
}

// ResolveException closes a pending_manual_assignment donation without a
// delivery-tracking phase. 'cancelled' releases the reserved stock;
// 'completed' does not, the food is presumed delivered out of band.
func (e *Engine) ResolveException(ctx context.Context, donationID int64, outcome models.DonationStatus) (*models.Donation, error) {
	if _, err := auth.RequireAdmin(ctx, e.users); err != nil {
		return nil, err
	}
	if outcome != models.DonationStatusCompleted && outcome != models.DonationStatusCancelled {
		return nil, fmt.Errorf("resolution must be completed or cancelled, got %s: %w", outcome, models.ErrInvalidTransition)
	}

	unlock := e.lockDonation(donationID)
	defer unlock()

	d, err := e.getDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	ok, err := e.donations.UpdateStatusIf(ctx, donationID, outcome, models.DonationStatusManual)
	if err != nil {
		return nil, fmt.Errorf("resolve exception: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("donation %d is %s, not pending manual assignment: %w", donationID, d.Status, models.ErrInvalidTransition)
	}

	if outcome == models.DonationStatusCancelled {
		if err := e.releaseDonationStock(ctx, donationID); err != nil {
			return nil, err
		}
	}
	if err := e.donations.SetResolvedAt(ctx, donationID, e.clock.Now().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("stamp resolution: %w", err)
	}
	return e.getDonation(ctx, donationID)
}
