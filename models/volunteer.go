package models

// Volunteer represents a delivery volunteer.
type Volunteer struct {
	ID                int64   `db:"id" json:"id"`
	Name              string  `db:"name" json:"name"`
	VehicleCapacityKg float64 `db:"vehicle_capacity_kg" json:"vehicle_capacity_kg"`
	IsAvailable       bool    `db:"is_available" json:"is_available"`
	// Declared location, used for ranking only. Nullable in DB; a volunteer
	// without coordinates still matches but sorts after located ones.
	Lat *float64 `db:"lat" json:"lat,omitempty"`
	Lng *float64 `db:"lng" json:"lng,omitempty"`
	// Rating is the rolling average of recipient ratings over completed
	// deliveries. RatingCount is how many ratings it averages.
	Rating            float64 `db:"rating" json:"rating"`
	RatingCount       int64   `db:"rating_count" json:"rating_count"`
	ActiveAssignments int64   `db:"active_assignments" json:"active_assignments"`
	TotalDeliveries   int64   `db:"total_deliveries" json:"total_deliveries"`
}

// HasLocation reports whether the volunteer declared coordinates.
func (v *Volunteer) HasLocation() bool {
	return v.Lat != nil && v.Lng != nil
}
