package store

import (
	"context"
	"time"

	"foodbridge/models"
)

// ListingFilter narrows ListListings. Empty fields match everything.
type ListingFilter struct {
	DonorID  string
	Category models.Category
	// Statuses matches any of the stored statuses.
	Statuses []models.ListingStatus
	// IDs restricts to these listings when non-nil; an empty non-nil slice matches nothing.
	IDs []string
}

type PickupFilter struct {
	NGOID     string
	DonorID   string
	ListingID string
	Status    models.PickupStatus
}

type RedistributionFilter struct {
	NGOID   string
	DonorID string
}

// Store is the persistence boundary for listings, pickups and their records.
// Results of List* calls are ordered by creation time, newest first.
//
// ClaimListing and AdvancePickup are the only multi-entity writes and must be
// atomic: a reserved listing is never observable without its pickup.
type Store interface {
	CreateListing(ctx context.Context, l models.Listing) error
	GetListing(ctx context.Context, id string) (models.Listing, error)
	ListListings(ctx context.Context, f ListingFilter) ([]models.Listing, error)
	// UpdateListing replaces listing content only while its stored status is one
	// of allowed; otherwise it fails with errs.ErrConflict.
	UpdateListing(ctx context.Context, l models.Listing, allowed []models.ListingStatus) error
	// ExpireListings stores expired on every draft/available listing past expiry.
	ExpireListings(ctx context.Context, now time.Time) (int64, error)

	// ClaimListing moves the listing available -> reserved and inserts p in one
	// step. p's listing display fields are filled from the locked listing.
	// Fails with errs.ErrNotFound, errs.ErrExpired or errs.ErrConflict.
	ClaimListing(ctx context.Context, listingID string, p models.Pickup) (models.Pickup, error)
	GetPickup(ctx context.Context, id string) (models.Pickup, error)
	ListPickups(ctx context.Context, f PickupFilter) ([]models.Pickup, error)
	// AdvancePickup moves a pickup from -> to, stamping the time and optional note.
	// When listingStatus is non-empty the owning listing is set to it in the same
	// step. Fails with errs.ErrConflict if the stored status is no longer from.
	AdvancePickup(ctx context.Context, id string, from, to models.PickupStatus, at time.Time, note *models.TransitionNote, listingStatus models.ListingStatus) (models.Pickup, error)

	// CreateRedistribution fails with errs.ErrConflict if the pickup already has one.
	CreateRedistribution(ctx context.Context, rec models.RedistributionRecord) error
	GetRedistribution(ctx context.Context, pickupID string) (models.RedistributionRecord, error)
	ListRedistributions(ctx context.Context, f RedistributionFilter) ([]models.RedistributionRecord, error)

	// CreateUser fails with errs.ErrConflict on a duplicate email.
	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)

	AppendAudit(ctx context.Context, e models.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error)
}
