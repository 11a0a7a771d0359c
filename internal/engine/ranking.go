package engine

import (
	"sort"

	"donationFulfillment/internal/geo"
	"donationFulfillment/models"
)

// candidate is one volunteer's standing in a matching round.
type candidate struct {
	Volunteer models.Volunteer
	// TripKm is volunteer -> donor -> recipient straight-line distance.
	// Valid only when HasDistance; volunteers without coordinates rank
	// after located ones rather than being excluded.
	TripKm      float64
	HasDistance bool
}

// rankCandidates orders eligible volunteers best-first:
//  1. ascending trip distance via the volunteer's declared location,
//     missing coordinates sorting last;
//  2. descending rating;
//  3. ascending active assignment count;
//  4. ascending volunteer id as the deterministic final tie-break.
//
// It is a pure function over the snapshot, so ranking stays testable without
// a database.
func rankCandidates(donor, recipient *models.User, vols []models.Volunteer) []candidate {
	out := make([]candidate, 0, len(vols))
	for _, v := range vols {
		c := candidate{Volunteer: v}
		if v.HasLocation() && donor != nil && donor.Lat != nil && donor.Lng != nil {
			c.HasDistance = true
			if recipient != nil && recipient.Lat != nil && recipient.Lng != nil {
				c.TripKm = geo.TripKm(*v.Lat, *v.Lng, *donor.Lat, *donor.Lng, *recipient.Lat, *recipient.Lng)
			} else {
				// Recipient location unknown: rank on the pickup leg alone.
				c.TripKm = geo.HaversineKm(*v.Lat, *v.Lng, *donor.Lat, *donor.Lng)
			}
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasDistance != b.HasDistance {
			return a.HasDistance
		}
		if a.HasDistance && a.TripKm != b.TripKm {
			return a.TripKm < b.TripKm
		}
		if a.Volunteer.Rating != b.Volunteer.Rating {
			return a.Volunteer.Rating > b.Volunteer.Rating
		}
		if a.Volunteer.ActiveAssignments != b.Volunteer.ActiveAssignments {
			return a.Volunteer.ActiveAssignments < b.Volunteer.ActiveAssignments
		}
		return a.Volunteer.ID < b.Volunteer.ID
	})
	return out
}
