package models

// OfferOutcome represents the result of one matching round.
type OfferOutcome string

const (
	OfferPending  OfferOutcome = "pending"
	OfferAccepted OfferOutcome = "accepted"
	OfferRejected OfferOutcome = "rejected"
	OfferExpired  OfferOutcome = "expired"
)

// Offer is a time-boxed proposal of a donation's delivery task to one
// volunteer. The rows for a donation, in creation order, form its offer
// sequence; a UNIQUE(donation_id, volunteer_id) constraint keeps any
// volunteer from being offered the same donation twice.
type Offer struct {
	ID          int64        `db:"id" json:"id"`
	DonationID  int64        `db:"donation_id" json:"donation_id"`
	VolunteerID int64        `db:"volunteer_id" json:"volunteer_id"`
	Rank        int          `db:"rank" json:"rank"`
	Outcome     OfferOutcome `db:"outcome" json:"outcome"`
	ExpiresAt   string       `db:"expires_at" json:"expires_at"`
	CreatedAt   string       `db:"created_at" json:"created_at"`
}
