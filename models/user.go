package models

// Role identifies what a user account is allowed to do.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleAdmin     Role = "admin"
)

// User represents a donor, recipient, or admin account.
// Volunteers are tracked separately in the volunteers table.
// It maps to the `users` table in SQLite.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Role     Role   `db:"role" json:"role"`
	// Lat/Lng are the profile location used as the pickup (donor) or
	// drop-off (recipient) point for matching. Nullable in DB; use
	// pointers to distinguish null vs zero.
	Lat *float64 `db:"lat" json:"lat,omitempty"`
	Lng *float64 `db:"lng" json:"lng,omitempty"`
}
