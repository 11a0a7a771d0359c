package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"donationFulfillment/internal/db"
	"donationFulfillment/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func seedDonor(t *testing.T, d *sql.DB) *models.User {
	t.Helper()
	u, err := NewUserRepository(d).Create(context.Background(), &models.User{Username: "donor", Role: models.RoleDonor})
	if err != nil {
		t.Fatalf("create donor: %v", err)
	}
	return u
}

func seedFood(t *testing.T, repo *FoodRepository, donorID int64, totalKg float64) *models.FoodItem {
	t.Helper()
	item, err := repo.Create(context.Background(), &models.FoodItem{
		DonorID:       donorID,
		Name:          "rice",
		TotalQuantity: totalKg,
		ExpiryAt:      time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339),
		IsListed:      true,
	})
	if err != nil {
		t.Fatalf("create food item: %v", err)
	}
	return item
}

func TestReserveAndRelease(t *testing.T) {
	d := openTestDB(t)
	repo := NewFoodRepository(d)
	ctx := context.Background()

	donor := seedDonor(t, d)
	item := seedFood(t, repo, donor.ID, 50)

	hold, err := repo.Reserve(ctx, item.ID, 10)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if hold.Quantity != 10 || hold.FoodItemID != item.ID {
		t.Fatalf("unexpected reservation: %+v", hold)
	}

	item, _ = repo.GetByID(ctx, item.ID)
	if item.AvailableQuantity != 40 {
		t.Fatalf("expected 40 available, got %.1f", item.AvailableQuantity)
	}

	if err := repo.Release(ctx, hold.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	item, _ = repo.GetByID(ctx, item.ID)
	if item.AvailableQuantity != 50 {
		t.Fatalf("expected 50 available after release, got %.1f", item.AvailableQuantity)
	}

	// The handle is single-use.
	if err := repo.Release(ctx, hold.ID); !errors.Is(err, models.ErrDoubleRelease) {
		t.Errorf("second release: expected ErrDoubleRelease, got %v", err)
	}
	item, _ = repo.GetByID(ctx, item.ID)
	if item.AvailableQuantity != 50 {
		t.Errorf("double release over-credited: %.1f", item.AvailableQuantity)
	}
}

func TestReserveInsufficientStock(t *testing.T) {
	d := openTestDB(t)
	repo := NewFoodRepository(d)
	ctx := context.Background()

	donor := seedDonor(t, d)
	item := seedFood(t, repo, donor.ID, 5)

	if _, err := repo.Reserve(ctx, item.ID, 8); !errors.Is(err, models.ErrInsufficientStock) {
		t.Errorf("over-reserve: expected ErrInsufficientStock, got %v", err)
	}
	if _, err := repo.Reserve(ctx, item.ID, 0); !errors.Is(err, models.ErrInvalidQuantity) {
		t.Errorf("zero quantity: expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := repo.Reserve(ctx, 9999, 1); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown item: expected ErrNotFound, got %v", err)
	}

	// Failed attempts must not touch the stock.
	item, _ = repo.GetByID(ctx, item.ID)
	if item.AvailableQuantity != 5 {
		t.Errorf("expected 5 available, got %.1f", item.AvailableQuantity)
	}
}

func TestReserveDelistsAtZeroAndReleaseRelists(t *testing.T) {
	d := openTestDB(t)
	repo := NewFoodRepository(d)
	ctx := context.Background()

	donor := seedDonor(t, d)
	item := seedFood(t, repo, donor.ID, 10)

	hold, err := repo.Reserve(ctx, item.ID, 10)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	item, _ = repo.GetByID(ctx, item.ID)
	if item.AvailableQuantity != 0 || item.IsListed {
		t.Fatalf("expected empty and delisted, got %.1f listed=%v", item.AvailableQuantity, item.IsListed)
	}

	// Nothing can reserve against an exhausted item.
	if _, err := repo.Reserve(ctx, item.ID, 1); !errors.Is(err, models.ErrInsufficientStock) {
		t.Errorf("reserve on empty item: expected ErrInsufficientStock, got %v", err)
	}

	if err := repo.Release(ctx, hold.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	item, _ = repo.GetByID(ctx, item.ID)
	if item.AvailableQuantity != 10 || !item.IsListed {
		t.Errorf("expected 10 available and relisted, got %.1f listed=%v", item.AvailableQuantity, item.IsListed)
	}
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	d := openTestDB(t)
	repo := NewFoodRepository(d)
	ctx := context.Background()

	donor := seedDonor(t, d)
	item := seedFood(t, repo, donor.ID, 30)

	const attempts = 6 // 6 x 10 kg against 30 kg: exactly 3 can win
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Reserve(ctx, item.ID, 10)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, models.ErrInsufficientStock) {
			t.Errorf("unexpected reserve error: %v", err)
		}
	}
	if wins != 3 {
		t.Fatalf("expected exactly 3 successful reservations, got %d", wins)
	}

	item, _ = repo.GetByID(ctx, item.ID)
	if item.AvailableQuantity != 0 {
		t.Errorf("expected 0 available after 3x10 reservations, got %.1f", item.AvailableQuantity)
	}
}

func TestDelistHidesFromListing(t *testing.T) {
	d := openTestDB(t)
	repo := NewFoodRepository(d)
	ctx := context.Background()

	donor := seedDonor(t, d)
	item := seedFood(t, repo, donor.ID, 10)

	avail, err := repo.ListAvailable(ctx)
	if err != nil || len(avail) != 1 {
		t.Fatalf("expected 1 listed item, got %d (%v)", len(avail), err)
	}

	if err := repo.Delist(ctx, item.ID); err != nil {
		t.Fatalf("delist: %v", err)
	}
	avail, _ = repo.ListAvailable(ctx)
	if len(avail) != 0 {
		t.Errorf("expected no listed items after delist, got %d", len(avail))
	}
	if _, err := repo.Reserve(ctx, item.ID, 1); !errors.Is(err, models.ErrInsufficientStock) {
		t.Errorf("reserve on delisted item: expected ErrInsufficientStock, got %v", err)
	}

	if err := repo.Delist(ctx, 9999); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("delist unknown: expected ErrNotFound, got %v", err)
	}
}
