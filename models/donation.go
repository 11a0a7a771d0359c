package models

// DonationStatus represents the current progress of a donation through the
// fulfillment state machine.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusConfirmed DonationStatus = "confirmed"
	DonationStatusAssigned  DonationStatus = "assigned"
	DonationStatusPickedUp  DonationStatus = "picked_up"
	DonationStatusInTransit DonationStatus = "in_transit"
	DonationStatusDelivered DonationStatus = "delivered"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusCancelled DonationStatus = "cancelled"
	DonationStatusManual    DonationStatus = "pending_manual_assignment"
)

// kgPerMeal is the weight assumed to feed one person.
const kgPerMeal = 0.4

// Donation represents one donor-to-recipient transfer transaction.
// AssignedVolunteer is non-null only from assigned through completed.
// Cross-references are by id; the donation never embeds volunteer or
// food item state.
type Donation struct {
	ID                int64          `db:"id" json:"id"`
	DonorID           int64          `db:"donor_id" json:"donor_id"`
	RecipientID       int64          `db:"recipient_id" json:"recipient_id"`
	Status            DonationStatus `db:"status" json:"status"`
	TotalWeightKg     float64        `db:"total_weight_kg" json:"total_weight_kg"`
	AssignedVolunteer *int64         `db:"assigned_volunteer" json:"assigned_volunteer,omitempty"`
	RecipientRating   *int64         `db:"recipient_rating" json:"recipient_rating,omitempty"`
	CreatedAt         string         `db:"created_at" json:"created_at"`
	ResolvedAt        *string        `db:"resolved_at" json:"resolved_at,omitempty"`
}

// EstimatedMeals estimates how many meals the donation provides.
func (d *Donation) EstimatedMeals() int {
	if d.TotalWeightKg <= 0 {
		return 0
	}
	return int(d.TotalWeightKg / kgPerMeal)
}

// IsTerminal reports whether no transition may leave the current status.
func (d *Donation) IsTerminal() bool {
	return d.Status == DonationStatusCompleted || d.Status == DonationStatusCancelled
}

// DonationItem links one FoodItem line to a donation, together with the
// reservation handle holding its quantity.
type DonationItem struct {
	ID            int64   `db:"id" json:"id"`
	DonationID    int64   `db:"donation_id" json:"donation_id"`
	FoodItemID    int64   `db:"food_item_id" json:"food_item_id"`
	Quantity      float64 `db:"quantity" json:"quantity"`
	ReservationID string  `db:"reservation_id" json:"reservation_id"`
}
