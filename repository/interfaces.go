package repository

import (
	"context"

	"donationFulfillment/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	SetLocation(ctx context.Context, id int64, lat, lng float64) error
}

// FoodRepositoryI defines the inventory ledger operations.
type FoodRepositoryI interface {
	Create(ctx context.Context, f *models.FoodItem) (*models.FoodItem, error)
	GetByID(ctx context.Context, id int64) (*models.FoodItem, error)
	ListByDonor(ctx context.Context, donorID int64) ([]models.FoodItem, error)
	ListAvailable(ctx context.Context) ([]models.FoodItem, error)
	Delist(ctx context.Context, id int64) error
	Reserve(ctx context.Context, itemID int64, quantity float64) (*models.Reservation, error)
	Release(ctx context.Context, reservationID string) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
}

// VolunteerRepositoryI defines the volunteer registry operations.
type VolunteerRepositoryI interface {
	Create(ctx context.Context, v *models.Volunteer) (*models.Volunteer, error)
	GetByID(ctx context.Context, id int64) (*models.Volunteer, error)
	GetByName(ctx context.Context, name string) (*models.Volunteer, error)
	SetAvailability(ctx context.Context, id int64, available bool) error
	SetLocation(ctx context.Context, id int64, lat, lng float64) error
	ListEligible(ctx context.Context, weightKg float64, maxActive int, excludeIDs []int64) ([]models.Volunteer, error)
	IncrementActive(ctx context.Context, id int64) error
	IncrementActiveIf(ctx context.Context, id int64, maxActive int) (bool, error)
	DecrementActive(ctx context.Context, id int64) error
	AddRating(ctx context.Context, id int64, rating int64) error
}

// DonationRepositoryI defines operations on Donation entities.
type DonationRepositoryI interface {
	Create(ctx context.Context, d *models.Donation, items []models.DonationItem) (*models.Donation, error)
	GetByID(ctx context.Context, id int64) (*models.Donation, error)
	GetItems(ctx context.Context, donationID int64) ([]models.DonationItem, error)
	UpdateStatusIf(ctx context.Context, id int64, to models.DonationStatus, from ...models.DonationStatus) (bool, error)
	AssignVolunteerIf(ctx context.Context, id, volunteerID int64, from ...models.DonationStatus) (bool, error)
	ClearVolunteer(ctx context.Context, id int64) error
	SetRating(ctx context.Context, id, rating int64) error
	SetResolvedAt(ctx context.Context, id int64, at string) error
	ListByStatus(ctx context.Context, status models.DonationStatus) ([]models.Donation, error)
}

// OfferRepositoryI defines operations on Offer entities.
type OfferRepositoryI interface {
	Create(ctx context.Context, o *models.Offer) (*models.Offer, error)
	GetByID(ctx context.Context, id int64) (*models.Offer, error)
	GetPendingByDonation(ctx context.Context, donationID int64) (*models.Offer, error)
	ResolveIf(ctx context.Context, id int64, to models.OfferOutcome) (bool, error)
	ListByDonation(ctx context.Context, donationID int64) ([]models.Offer, error)
	OfferedVolunteerIDs(ctx context.Context, donationID int64) ([]int64, error)
	ListPending(ctx context.Context) ([]models.Offer, error)
}
