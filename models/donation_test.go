package models

import "testing"

func TestEstimatedMeals(t *testing.T) {
	cases := []struct {
		weightKg float64
		want     int
	}{
		{0, 0},
		{-1, 0},
		{0.4, 1},
		{10, 25},
		{0.3, 0},
	}
	for _, c := range cases {
		d := Donation{TotalWeightKg: c.weightKg}
		if got := d.EstimatedMeals(); got != c.want {
			t.Errorf("EstimatedMeals(%.1f kg) = %d, want %d", c.weightKg, got, c.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []DonationStatus{DonationStatusCompleted, DonationStatusCancelled} {
		if d := (Donation{Status: s}); !d.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []DonationStatus{
		DonationStatusPending, DonationStatusConfirmed, DonationStatusAssigned,
		DonationStatusPickedUp, DonationStatusInTransit, DonationStatusDelivered,
		DonationStatusManual,
	} {
		if d := (Donation{Status: s}); d.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
