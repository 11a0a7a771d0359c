package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"donationFulfillment/models"
)

// DonationRepository handles donation records and their item lines.
// Status transitions go through guarded updates: the caller names the states
// the row must currently be in, and a zero rows-affected result means the
// transition lost a race or was illegal.
type DonationRepository struct {
	db *sql.DB
}

// NewDonationRepository creates a new DonationRepository.
func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create inserts a donation and its item lines in one transaction.
func (r *DonationRepository) Create(ctx context.Context, d *models.Donation, items []models.DonationItem) (*models.Donation, error) {
	if d == nil {
		return nil, errors.New("donation is nil")
	}
	if d.Status == "" {
		d.Status = models.DonationStatusPending
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO donations (donor_id, recipient_id, status, total_weight_kg) VALUES (?,?,?,?)`,
		d.DonorID, d.RecipientID, string(d.Status), d.TotalWeightKg)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].DonationID = id
		if _, err := tx.ExecContext(ctx, `INSERT INTO donation_items (donation_id, food_item_id, quantity, reservation_id) VALUES (?,?,?,?)`,
			id, items[i].FoodItemID, items[i].Quantity, items[i].ReservationID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches a donation by its ID.
func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*models.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var d models.Donation
	var status string
	var volunteer sql.NullInt64
	var rating sql.NullInt64
	var resolvedAt sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT id, donor_id, recipient_id, status, total_weight_kg, assigned_volunteer, recipient_rating, created_at, resolved_at FROM donations WHERE id = ?`, id).
		Scan(&d.ID, &d.DonorID, &d.RecipientID, &status, &d.TotalWeightKg, &volunteer, &rating, &d.CreatedAt, &resolvedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.Status = models.DonationStatus(status)
	if volunteer.Valid {
		v := volunteer.Int64
		d.AssignedVolunteer = &v
	}
	if rating.Valid {
		v := rating.Int64
		d.RecipientRating = &v
	}
	if resolvedAt.Valid {
		v := resolvedAt.String
		d.ResolvedAt = &v
	}
	return &d, nil
}

// GetItems returns a donation's item lines in insertion order.
func (r *DonationRepository) GetItems(ctx context.Context, donationID int64) ([]models.DonationItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, donation_id, food_item_id, quantity, reservation_id FROM donation_items WHERE donation_id = ? ORDER BY id ASC`, donationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DonationItem
	for rows.Next() {
		var it models.DonationItem
		if err := rows.Scan(&it.ID, &it.DonationID, &it.FoodItemID, &it.Quantity, &it.ReservationID); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatusIf moves a donation to the target status only when its current
// status is one of from. Returns false when the guarded update matched no row.
func (r *DonationRepository) UpdateStatusIf(ctx context.Context, id int64, to models.DonationStatus, from ...models.DonationStatus) (bool, error) {
	if len(from) == 0 {
		return false, errors.New("no from statuses given")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := []any{string(to)}
	for _, s := range from {
		args = append(args, string(s))
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, `UPDATE donations SET status = ? WHERE status IN (`+placeholders+`) AND id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AssignVolunteerIf binds a volunteer and moves the donation to 'assigned'
// in one guarded update, only from the given states and only when no
// volunteer is bound yet.
func (r *DonationRepository) AssignVolunteerIf(ctx context.Context, id, volunteerID int64, from ...models.DonationStatus) (bool, error) {
	if len(from) == 0 {
		return false, errors.New("no from statuses given")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := []any{volunteerID}
	for _, s := range from {
		args = append(args, string(s))
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, `UPDATE donations SET status = 'assigned', assigned_volunteer = ? WHERE status IN (`+placeholders+`) AND assigned_volunteer IS NULL AND id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClearVolunteer unbinds the volunteer (cancellation path; assigned_volunteer
// must be null outside assigned..completed states).
func (r *DonationRepository) ClearVolunteer(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE donations SET assigned_volunteer = NULL WHERE id = ?`, id)
	return err
}

// SetRating records the recipient's rating.
func (r *DonationRepository) SetRating(ctx context.Context, id, rating int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE donations SET recipient_rating = ? WHERE id = ?`, rating, id)
	return err
}

// SetResolvedAt stamps the terminal time.
func (r *DonationRepository) SetResolvedAt(ctx context.Context, id int64, at string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE donations SET resolved_at = ? WHERE id = ?`, at, id)
	return err
}

// ListByStatus returns donations in the given status, oldest first.
func (r *DonationRepository) ListByStatus(ctx context.Context, status models.DonationStatus) ([]models.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, donor_id, recipient_id, status, total_weight_kg, assigned_volunteer, recipient_rating, created_at, resolved_at FROM donations WHERE status = ? ORDER BY id ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Donation
	for rows.Next() {
		var d models.Donation
		var st string
		var volunteer, rating sql.NullInt64
		var resolvedAt sql.NullString
		if err := rows.Scan(&d.ID, &d.DonorID, &d.RecipientID, &st, &d.TotalWeightKg, &volunteer, &rating, &d.CreatedAt, &resolvedAt); err != nil {
			return nil, err
		}
		d.Status = models.DonationStatus(st)
		if volunteer.Valid {
			v := volunteer.Int64
			d.AssignedVolunteer = &v
		}
		if rating.Valid {
			v := rating.Int64
			d.RecipientRating = &v
		}
		if resolvedAt.Valid {
			v := resolvedAt.String
			d.ResolvedAt = &v
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
