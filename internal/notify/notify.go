package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"donationFulfillment/models"
)

// Notifier is the outbound alert port. The engine never depends on a
// concrete channel; implementations deliver over log, Telegram, or whatever
// the deployment wires in.
type Notifier interface {
	// CascadeExhausted alerts admins that a donation ran out of candidates
	// and now needs manual assignment. attempted lists every volunteer id
	// from the donation's offer sequence.
	CascadeExhausted(ctx context.Context, d *models.Donation, attempted []int64) error
	// OfferCreated tells a volunteer a new delivery offer is waiting.
	OfferCreated(ctx context.Context, o *models.Offer, d *models.Donation) error
	// VolunteerAssigned tells the donor a volunteer accepted the delivery.
	VolunteerAssigned(ctx context.Context, d *models.Donation, volunteerID int64) error
}

// LogNotifier writes every alert to the process log. It is the default
// channel and the fallback when no Telegram token is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) CascadeExhausted(_ context.Context, d *models.Donation, attempted []int64) error {
	log.Printf("ADMIN ALERT: donation %d (donor %d) exhausted the volunteer cascade; attempted volunteers: %s; assign manually",
		d.ID, d.DonorID, formatIDs(attempted))
	return nil
}

func (n *LogNotifier) OfferCreated(_ context.Context, o *models.Offer, d *models.Donation) error {
	log.Printf("offer %d: donation %d (%.1f kg) offered to volunteer %d, expires %s",
		o.ID, d.ID, d.TotalWeightKg, o.VolunteerID, o.ExpiresAt)
	return nil
}

func (n *LogNotifier) VolunteerAssigned(_ context.Context, d *models.Donation, volunteerID int64) error {
	log.Printf("donation %d: volunteer %d accepted the delivery", d.ID, volunteerID)
	return nil
}

func formatIDs(ids []int64) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ", ")
}
