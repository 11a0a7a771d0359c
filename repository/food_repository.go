package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"donationFulfillment/models"
)

// FoodRepository is the inventory ledger. Reserve and Release are the only
// code paths that mutate available_quantity; both use guarded single-statement
// updates so concurrent reservations on the same item cannot lose updates.
type FoodRepository struct {
	db *sql.DB
}

// NewFoodRepository creates a new FoodRepository.
func NewFoodRepository(db *sql.DB) *FoodRepository {
	return &FoodRepository{db: db}
}

// Create inserts a new food item. AvailableQuantity defaults to the total
// when zero.
func (r *FoodRepository) Create(ctx context.Context, f *models.FoodItem) (*models.FoodItem, error) {
	if f == nil {
		return nil, errors.New("food item is nil")
	}
	if f.TotalQuantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}
	if f.AvailableQuantity == 0 {
		f.AvailableQuantity = f.TotalQuantity
	}
	if f.Unit == "" {
		f.Unit = "kg"
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO food_items (donor_id, name, unit, total_quantity, available_quantity, expiry_at, is_listed) VALUES (?,?,?,?,?,?,?)`,
		f.DonorID, f.Name, f.Unit, f.TotalQuantity, f.AvailableQuantity, f.ExpiryAt, boolToInt(f.IsListed))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches a food item by its ID.
func (r *FoodRepository) GetByID(ctx context.Context, id int64) (*models.FoodItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var f models.FoodItem
	var listed int
	err := r.db.QueryRowContext(ctx, `SELECT id, donor_id, name, unit, total_quantity, available_quantity, expiry_at, is_listed, created_at FROM food_items WHERE id = ?`, id).
		Scan(&f.ID, &f.DonorID, &f.Name, &f.Unit, &f.TotalQuantity, &f.AvailableQuantity, &f.ExpiryAt, &listed, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	f.IsListed = listed != 0
	return &f, nil
}

// ListByDonor returns all items owned by a donor, listed or not.
func (r *FoodRepository) ListByDonor(ctx context.Context, donorID int64) ([]models.FoodItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, donor_id, name, unit, total_quantity, available_quantity, expiry_at, is_listed, created_at FROM food_items WHERE donor_id = ? ORDER BY id ASC`, donorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFoodItems(rows)
}

// ListAvailable returns listed items with stock, soonest expiry first.
func (r *FoodRepository) ListAvailable(ctx context.Context) ([]models.FoodItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, donor_id, name, unit, total_quantity, available_quantity, expiry_at, is_listed, created_at FROM food_items WHERE is_listed = 1 AND available_quantity > 0 ORDER BY expiry_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFoodItems(rows)
}

// Delist hides an item from future reservation attempts. In-flight
// reservations already taken against it are unaffected.
func (r *FoodRepository) Delist(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE food_items SET is_listed = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Reserve atomically decrements available_quantity and records a reservation
// handle. Fails with ErrInsufficientStock when the item cannot cover the
// quantity, and auto-delists the item when its stock hits zero. The guarded
// UPDATE serializes concurrent reservations on the same row.
func (r *FoodRepository) Reserve(ctx context.Context, itemID int64, quantity float64) (*models.Reservation, error) {
	if quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
UPDATE food_items SET
  available_quantity = available_quantity - ?,
  is_listed = CASE WHEN available_quantity - ? <= 0 THEN 0 ELSE is_listed END
WHERE id = ? AND is_listed = 1 AND available_quantity >= ?`,
		quantity, quantity, itemID, quantity)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var listed int
		err := tx.QueryRowContext(ctx, `SELECT is_listed FROM food_items WHERE id = ?`, itemID).Scan(&listed)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("food item %d: %w", itemID, models.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		if listed == 0 {
			return nil, fmt.Errorf("food item %d is not listed: %w", itemID, models.ErrInsufficientStock)
		}
		return nil, fmt.Errorf("food item %d: %w", itemID, models.ErrInsufficientStock)
	}

	hold := &models.Reservation{
		ID:         uuid.NewString(),
		FoodItemID: itemID,
		Quantity:   quantity,
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO reservations (id, food_item_id, quantity, released) VALUES (?,?,?,0)`,
		hold.ID, hold.FoodItemID, hold.Quantity); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return hold, nil
}

// Release credits a reservation's quantity back to its item, capped at the
// item's total, and relists the item when stock becomes positive. Each
// reservation releases at most once; a second release fails with
// ErrDoubleRelease instead of over-crediting.
func (r *FoodRepository) Release(ctx context.Context, reservationID string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var itemID int64
	var quantity float64
	var released int
	err = tx.QueryRowContext(ctx, `SELECT food_item_id, quantity, released FROM reservations WHERE id = ?`, reservationID).
		Scan(&itemID, &quantity, &released)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reservation %s: %w", reservationID, models.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if released != 0 {
		return fmt.Errorf("reservation %s: %w", reservationID, models.ErrDoubleRelease)
	}

	res, err := tx.ExecContext(ctx, `UPDATE reservations SET released = 1 WHERE id = ? AND released = 0`, reservationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Lost a race with a concurrent release of the same handle.
		return fmt.Errorf("reservation %s: %w", reservationID, models.ErrDoubleRelease)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE food_items SET
  available_quantity = MIN(total_quantity, available_quantity + ?),
  is_listed = CASE WHEN available_quantity + ? > 0 THEN 1 ELSE is_listed END
WHERE id = ?`, quantity, quantity, itemID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetReservation fetches a reservation by its handle.
func (r *FoodRepository) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var hold models.Reservation
	var released int
	err := r.db.QueryRowContext(ctx, `SELECT id, food_item_id, quantity, released FROM reservations WHERE id = ?`, id).
		Scan(&hold.ID, &hold.FoodItemID, &hold.Quantity, &released)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	hold.Released = released != 0
	return &hold, nil
}

func scanFoodItems(rows *sql.Rows) ([]models.FoodItem, error) {
	var out []models.FoodItem
	for rows.Next() {
		var f models.FoodItem
		var listed int
		if err := rows.Scan(&f.ID, &f.DonorID, &f.Name, &f.Unit, &f.TotalQuantity, &f.AvailableQuantity, &f.ExpiryAt, &listed, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.IsListed = listed != 0
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
