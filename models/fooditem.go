package models

import "time"

// Urgency classifies how soon a listed item must move.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// FoodItem represents a donor-owned batch of surplus food.
// AvailableQuantity is the only mutable quantity; it never goes below zero
// or above TotalQuantity (guarded at the repository layer).
type FoodItem struct {
	ID                int64   `db:"id" json:"id"`
	DonorID           int64   `db:"donor_id" json:"donor_id"`
	Name              string  `db:"name" json:"name"`
	Unit              string  `db:"unit" json:"unit"`
	TotalQuantity     float64 `db:"total_quantity" json:"total_quantity"`
	AvailableQuantity float64 `db:"available_quantity" json:"available_quantity"`
	ExpiryAt          string  `db:"expiry_at" json:"expiry_at"`
	IsListed          bool    `db:"is_listed" json:"is_listed"`
	CreatedAt         string  `db:"created_at" json:"created_at"`
}

// Urgency derives the urgency level from time-to-expiry at the given instant.
// Thresholds: critical within 2h of expiry (or expired), high within 6h,
// medium within 24h, otherwise low.
func (f *FoodItem) Urgency(now time.Time) Urgency {
	exp, err := time.Parse(time.RFC3339, f.ExpiryAt)
	if err != nil {
		return UrgencyLow
	}
	left := exp.Sub(now)
	switch {
	case left <= 2*time.Hour:
		return UrgencyCritical
	case left <= 6*time.Hour:
		return UrgencyHigh
	case left <= 24*time.Hour:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Reservation is the inventory hold placed on a FoodItem for one donation
// line. A reservation can be released at most once; Released flips when the
// quantity is credited back to the item.
type Reservation struct {
	ID         string  `db:"id" json:"id"`
	FoodItemID int64   `db:"food_item_id" json:"food_item_id"`
	Quantity   float64 `db:"quantity" json:"quantity"`
	Released   bool    `db:"released" json:"released"`
}
