package auth

import (
	"context"
	"fmt"
	"strings"

	"donationFulfillment/models"
	"donationFulfillment/repository"
)

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: missing principal", models.ErrUnauthorized)
	}
	return p, nil
}

// RequireKind ensures the principal has the given kind (lowercased compare).
func RequireKind(ctx context.Context, kind string) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if p.Kind != strings.ToLower(kind) {
		return nil, fmt.Errorf("%w: only %s can perform this action", models.ErrUnauthorized, strings.ToLower(kind))
	}
	return p, nil
}

// RequireDonor ensures the caller is a donor.
func RequireDonor(ctx context.Context) (*Principal, error) {
	return RequireKind(ctx, "donor")
}

// RequireRecipient ensures the caller is a recipient.
func RequireRecipient(ctx context.Context) (*Principal, error) {
	return RequireKind(ctx, "recipient")
}

// RequireVolunteer ensures the caller is a volunteer.
func RequireVolunteer(ctx context.Context) (*Principal, error) {
	return RequireKind(ctx, "volunteer")
}

// RequireDonorOrRecipient ensures the caller is one of the two parties to a donation.
func RequireDonorOrRecipient(ctx context.Context) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if p.Kind != "donor" && p.Kind != "recipient" {
		return nil, fmt.Errorf("%w: only donor or recipient can perform this action", models.ErrUnauthorized)
	}
	return p, nil
}

// RequireAdmin ensures the caller is an admin principal AND that the underlying
// user exists with role 'admin'. This prevents spoofing by a non-admin.
func RequireAdmin(ctx context.Context, users *repository.UserRepository) (*Principal, error) {
	p, err := RequireKind(ctx, "admin")
	if err != nil {
		return nil, err
	}
	if users == nil {
		return nil, fmt.Errorf("users repository not configured")
	}
	u, err := users.GetByUsername(ctx, p.Name)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil || u.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can perform this action", models.ErrUnauthorized)
	}
	return p, nil
}
