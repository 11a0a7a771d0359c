package models

import "errors"

// Typed failures returned across the engine boundary. All of them are
// recoverable by the caller; none terminates the process.
var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrDoubleRelease       = errors.New("reservation already released")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOfferNoLongerValid  = errors.New("offer no longer valid")
	ErrNoEligibleVolunteer = errors.New("no eligible volunteer")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidRating       = errors.New("rating must be between 0 and 5")
)
