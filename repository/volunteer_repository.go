package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"donationFulfillment/models"
)

// VolunteerRepository is the volunteer registry.
type VolunteerRepository struct {
	db *sql.DB
}

// NewVolunteerRepository creates a new VolunteerRepository.
func NewVolunteerRepository(db *sql.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

// Create inserts a new volunteer.
func (r *VolunteerRepository) Create(ctx context.Context, v *models.Volunteer) (*models.Volunteer, error) {
	if v == nil {
		return nil, errors.New("volunteer is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO volunteers (name, vehicle_capacity_kg, is_available, lat, lng, rating, rating_count, active_assignments, total_deliveries) VALUES (?,?,?,?,?,?,?,?,?)`,
		v.Name, v.VehicleCapacityKg, boolToInt(v.IsAvailable), v.Lat, v.Lng, v.Rating, v.RatingCount, v.ActiveAssignments, v.TotalDeliveries)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	v.ID = id
	return v, nil
}

// GetByID fetches a volunteer by its ID.
func (r *VolunteerRepository) GetByID(ctx context.Context, id int64) (*models.Volunteer, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanVolunteer(r.db.QueryRowContext(ctx, `SELECT id, name, vehicle_capacity_kg, is_available, lat, lng, rating, rating_count, active_assignments, total_deliveries FROM volunteers WHERE id = ?`, id))
}

// GetByName fetches a volunteer by its unique name.
func (r *VolunteerRepository) GetByName(ctx context.Context, name string) (*models.Volunteer, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanVolunteer(r.db.QueryRowContext(ctx, `SELECT id, name, vehicle_capacity_kg, is_available, lat, lng, rating, rating_count, active_assignments, total_deliveries FROM volunteers WHERE name = ?`, name))
}

// SetAvailability flips the availability flag. The flip affects future
// matching rounds only; an offer already issued stays pending.
func (r *VolunteerRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE volunteers SET is_available = ? WHERE id = ?`, boolToInt(available), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetLocation updates the declared coordinates used for ranking.
func (r *VolunteerRepository) SetLocation(ctx context.Context, id int64, lat, lng float64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE volunteers SET lat = ?, lng = ? WHERE id = ?`, lat, lng, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListEligible returns the volunteers a matching round may consider:
// available, enough vehicle capacity for the load, below the concurrent
// assignment cap, and not in the exclusion list (volunteers already offered
// this donation). An open offer occupies a slot the same way an active
// assignment does, so a volunteer already being courted for another donation
// is not offered a second one under the default cap. Ordering is by id;
// ranking happens in the engine over this snapshot.
func (r *VolunteerRepository) ListEligible(ctx context.Context, weightKg float64, maxActive int, excludeIDs []int64) ([]models.Volunteer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT id, name, vehicle_capacity_kg, is_available, lat, lng, rating, rating_count, active_assignments, total_deliveries FROM volunteers
WHERE is_available = 1 AND vehicle_capacity_kg >= ?
  AND active_assignments + (SELECT COUNT(*) FROM offers WHERE offers.volunteer_id = volunteers.id AND offers.outcome = 'pending') < ?`
	args := []any{weightKg, maxActive}
	if len(excludeIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(excludeIDs)), ",")
		query += " AND id NOT IN (" + placeholders + ")"
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Volunteer
	for rows.Next() {
		v, err := scanVolunteerRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// IncrementActive bumps the active assignment count when a volunteer is bound
// to a donation.
func (r *VolunteerRepository) IncrementActive(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE volunteers SET active_assignments = active_assignments + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// IncrementActiveIf claims one assignment slot only while the volunteer is
// below the cap. Returns false when the volunteer is already full; the guarded
// update linearizes concurrent claims the way status transitions do.
func (r *VolunteerRepository) IncrementActiveIf(ctx context.Context, id int64, maxActive int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE volunteers SET active_assignments = active_assignments + 1 WHERE id = ? AND active_assignments < ?`, id, maxActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DecrementActive releases one active assignment slot, never dropping below zero.
func (r *VolunteerRepository) DecrementActive(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE volunteers SET active_assignments = MAX(0, active_assignments - 1) WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddRating folds one recipient rating into the rolling average and counts
// the completed delivery.
func (r *VolunteerRepository) AddRating(ctx context.Context, id int64, rating int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `
UPDATE volunteers SET
  rating = (rating * rating_count + ?) / (rating_count + 1.0),
  rating_count = rating_count + 1,
  total_deliveries = total_deliveries + 1
WHERE id = ?`, rating, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// VolunteerStats aggregates a volunteer's completed deliveries.
type VolunteerStats struct {
	CompletedDeliveries int64   `json:"completed_deliveries"`
	TotalWeightKg       float64 `json:"total_weight_kg"`
	AverageRating       float64 `json:"average_rating"`
}

// Statistics returns performance aggregates over completed donations.
func (r *VolunteerRepository) Statistics(ctx context.Context, id int64) (*VolunteerStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var s VolunteerStats
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(d.id), COALESCE(SUM(d.total_weight_kg), 0), COALESCE(v.rating, 0)
FROM volunteers v
LEFT JOIN donations d ON d.assigned_volunteer = v.id AND d.status = 'completed'
WHERE v.id = ?
GROUP BY v.id`, id).Scan(&s.CompletedDeliveries, &s.TotalWeightKg, &s.AverageRating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanVolunteer(row *sql.Row) (*models.Volunteer, error) {
	var v models.Volunteer
	var available int
	var lat, lng sql.NullFloat64
	err := row.Scan(&v.ID, &v.Name, &v.VehicleCapacityKg, &available, &lat, &lng, &v.Rating, &v.RatingCount, &v.ActiveAssignments, &v.TotalDeliveries)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	v.IsAvailable = available != 0
	if lat.Valid {
		f := lat.Float64
		v.Lat = &f
	}
	if lng.Valid {
		f := lng.Float64
		v.Lng = &f
	}
	return &v, nil
}

func scanVolunteerRow(rows *sql.Rows) (*models.Volunteer, error) {
	var v models.Volunteer
	var available int
	var lat, lng sql.NullFloat64
	if err := rows.Scan(&v.ID, &v.Name, &v.VehicleCapacityKg, &available, &lat, &lng, &v.Rating, &v.RatingCount, &v.ActiveAssignments, &v.TotalDeliveries); err != nil {
		return nil, err
	}
	v.IsAvailable = available != 0
	if lat.Valid {
		f := lat.Float64
		v.Lat = &f
	}
	if lng.Valid {
		f := lng.Float64
		v.Lng = &f
	}
	return &v, nil
}
