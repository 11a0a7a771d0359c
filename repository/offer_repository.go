package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"donationFulfillment/models"
)

// OfferRepository drives the cascade's audit trail. A UNIQUE
// (donation_id, volunteer_id) constraint means a volunteer can never appear
// twice in a donation's offer sequence, and ResolveIf's guarded update
// linearizes accept/reject/expiry races on a pending offer.
type OfferRepository struct {
	db *sql.DB
}

// NewOfferRepository creates a new OfferRepository.
func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// Create inserts a pending offer.
func (r *OfferRepository) Create(ctx context.Context, o *models.Offer) (*models.Offer, error) {
	if o == nil {
		return nil, errors.New("offer is nil")
	}
	if o.Outcome == "" {
		o.Outcome = models.OfferPending
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO offers (donation_id, volunteer_id, rank, outcome, expires_at) VALUES (?,?,?,?,?)`,
		o.DonationID, o.VolunteerID, o.Rank, string(o.Outcome), o.ExpiresAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	o.ID = id
	return o, nil
}

// GetByID fetches an offer by its ID.
func (r *OfferRepository) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanOffer(r.db.QueryRowContext(ctx, `SELECT id, donation_id, volunteer_id, rank, outcome, expires_at, created_at FROM offers WHERE id = ?`, id))
}

// GetPendingByDonation returns the donation's single pending offer, if any.
func (r *OfferRepository) GetPendingByDonation(ctx context.Context, donationID int64) (*models.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanOffer(r.db.QueryRowContext(ctx, `SELECT id, donation_id, volunteer_id, rank, outcome, expires_at, created_at FROM offers WHERE donation_id = ? AND outcome = 'pending'`, donationID))
}

// ResolveIf moves a pending offer to the given outcome. Returns false when
// the offer was already resolved: the caller lost the accept/reject/expiry
// race and must treat the offer as no longer valid.
func (r *OfferRepository) ResolveIf(ctx context.Context, id int64, to models.OfferOutcome) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE offers SET outcome = ? WHERE id = ? AND outcome = 'pending'`, string(to), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByDonation returns the donation's full offer sequence in issue order.
func (r *OfferRepository) ListByDonation(ctx context.Context, donationID int64) ([]models.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, donation_id, volunteer_id, rank, outcome, expires_at, created_at FROM offers WHERE donation_id = ? ORDER BY id ASC`, donationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

// OfferedVolunteerIDs returns every volunteer already present in the
// donation's offer sequence, used to exclude them from re-ranking.
func (r *OfferRepository) OfferedVolunteerIDs(ctx context.Context, donationID int64) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT volunteer_id FROM offers WHERE donation_id = ? ORDER BY id ASC`, donationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPending returns every pending offer across donations, used at startup
// to re-arm expiry timers.
func (r *OfferRepository) ListPending(ctx context.Context) ([]models.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, donation_id, volunteer_id, rank, outcome, expires_at, created_at FROM offers WHERE outcome = 'pending' ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

func scanOffer(row *sql.Row) (*models.Offer, error) {
	var o models.Offer
	var outcome string
	err := row.Scan(&o.ID, &o.DonationID, &o.VolunteerID, &o.Rank, &outcome, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.Outcome = models.OfferOutcome(outcome)
	return &o, nil
}

func scanOffers(rows *sql.Rows) ([]models.Offer, error) {
	var out []models.Offer
	for rows.Next() {
		var o models.Offer
		var outcome string
		if err := rows.Scan(&o.ID, &o.DonationID, &o.VolunteerID, &o.Rank, &outcome, &o.ExpiresAt, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Outcome = models.OfferOutcome(outcome)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
