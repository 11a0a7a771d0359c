package engine

import (
	"context"
	"fmt"

	"donationFulfillment/internal/auth"
	"donationFulfillment/models"
)

// ListFoodItem publishes a new batch of surplus food under the calling
// donor's account.
func (e *Engine) ListFoodItem(ctx context.Context, item *models.FoodItem) (*models.FoodItem, error) {
	p, err := auth.RequireDonor(ctx)
	if err != nil {
		return nil, err
	}
	donor, err := e.currentUser(ctx, p)
	if err != nil {
		return nil, err
	}
	item.DonorID = donor.ID
	item.IsListed = true
	return e.food.Create(ctx, item)
}

// DelistFoodItem hides an item from future donation requests. Only the
// owning donor or an admin may delist; reservations already taken against
// the item are unaffected.
func (e *Engine) DelistFoodItem(ctx context.Context, itemID int64) error {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return err
	}

	item, err := e.food.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get food item: %w", err)
	}
	if item == nil {
		return fmt.Errorf("food item %d: %w", itemID, models.ErrNotFound)
	}

	switch p.Kind {
	case "admin":
		if _, err := auth.RequireAdmin(ctx, e.users); err != nil {
			return err
		}
	case "donor":
		owner, err := e.currentUser(ctx, p)
		if err != nil {
			return err
		}
		if item.DonorID != owner.ID {
			return fmt.Errorf("food item %d is not owned by donor %d: %w", itemID, owner.ID, models.ErrUnauthorized)
		}
	default:
		return fmt.Errorf("%w: only the owning donor or an admin can delist", models.ErrUnauthorized)
	}

	return e.food.Delist(ctx, itemID)
}

// AvailableFood lists reservable items, soonest expiry first.
func (e *Engine) AvailableFood(ctx context.Context) ([]models.FoodItem, error) {
	if _, err := auth.RequirePrincipal(ctx); err != nil {
		return nil, err
	}
	return e.food.ListAvailable(ctx)
}
