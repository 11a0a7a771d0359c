package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"donationFulfillment/models"
)

// UserRepository handles donor, recipient, and admin accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Role defaults to 'donor' if empty.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	if u.Role == "" {
		u.Role = models.RoleDonor
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO users (username, role, lat, lng) VALUES (?,?,?,?)`,
		u.Username, string(u.Role), u.Lat, u.Lng)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	u.ID = id
	return u, nil
}

// GetByID fetches a user by its ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.scanOne(r.db.QueryRowContext(ctx, `SELECT id, username, role, lat, lng FROM users WHERE id = ?`, id))
}

// GetByUsername fetches a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.scanOne(r.db.QueryRowContext(ctx, `SELECT id, username, role, lat, lng FROM users WHERE username = ?`, username))
}

// SetLocation updates a user's profile coordinates.
func (r *UserRepository) SetLocation(ctx context.Context, id int64, lat, lng float64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE users SET lat = ?, lng = ? WHERE id = ?`, lat, lng, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	var role string
	var lat, lng sql.NullFloat64
	err := row.Scan(&u.ID, &u.Username, &role, &lat, &lng)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = models.Role(role)
	if lat.Valid {
		v := lat.Float64
		u.Lat = &v
	}
	if lng.Valid {
		v := lng.Float64
		u.Lng = &v
	}
	return &u, nil
}
