// Package analytics derives impact figures from listings, pickups and
// redistribution records. Every view is computed from one role-scoped
// snapshot; nothing is cached.
package analytics

import (
	"context"
	"errors"

	"foodbridge/errs"
	"foodbridge/models"
	"foodbridge/store"
)

// Snapshot is the committed state visible to one caller.
type Snapshot struct {
	Role     models.Role
	Listings []models.Listing
	Pickups  []models.Pickup
	Records  []models.RedistributionRecord
	// Users drives registration-order ties. Admins get every user, other
	// roles the donors behind their listings.
	Users []models.User
}

// Load reads the snapshot for actor: admins see everything, donors their
// listings and the pickups on them, NGOs their pickups and the listings
// behind them.
func Load(ctx context.Context, s store.Store, actor models.Actor) (Snapshot, error) {
	snap := Snapshot{Role: actor.Role}
	var err error
	switch actor.Role {
	case models.RoleAdmin:
		if snap.Listings, err = s.ListListings(ctx, store.ListingFilter{}); err != nil {
			return snap, err
		}
		if snap.Pickups, err = s.ListPickups(ctx, store.PickupFilter{}); err != nil {
			return snap, err
		}
		if snap.Records, err = s.ListRedistributions(ctx, store.RedistributionFilter{}); err != nil {
			return snap, err
		}
		if snap.Users, err = s.ListUsers(ctx, ""); err != nil {
			return snap, err
		}

	case models.RoleDonor:
		if snap.Listings, err = s.ListListings(ctx, store.ListingFilter{DonorID: actor.ID}); err != nil {
			return snap, err
		}
		if snap.Pickups, err = s.ListPickups(ctx, store.PickupFilter{DonorID: actor.ID}); err != nil {
			return snap, err
		}
		if snap.Records, err = s.ListRedistributions(ctx, store.RedistributionFilter{DonorID: actor.ID}); err != nil {
			return snap, err
		}
		if snap.Users, err = donorsOf(ctx, s, snap.Listings); err != nil {
			return snap, err
		}

	case models.RoleNGO:
		if snap.Pickups, err = s.ListPickups(ctx, store.PickupFilter{NGOID: actor.ID}); err != nil {
			return snap, err
		}
		ids := make([]string, 0, len(snap.Pickups))
		for _, p := range snap.Pickups {
			ids = append(ids, p.ListingID)
		}
		if snap.Listings, err = s.ListListings(ctx, store.ListingFilter{IDs: ids}); err != nil {
			return snap, err
		}
		if snap.Records, err = s.ListRedistributions(ctx, store.RedistributionFilter{NGOID: actor.ID}); err != nil {
			return snap, err
		}
		if snap.Users, err = donorsOf(ctx, s, snap.Listings); err != nil {
			return snap, err
		}

	default:
		return snap, errs.New(errs.ErrForbidden, "unknown role %q", actor.Role)
	}
	return snap, nil
}

// donorsOf loads the distinct donors behind listings. Donors whose account
// is gone are skipped.
func donorsOf(ctx context.Context, s store.Store, listings []models.Listing) ([]models.User, error) {
	seen := make(map[string]bool)
	users := []models.User{}
	for _, l := range listings {
		if l.DonorID == "" || seen[l.DonorID] {
			continue
		}
		seen[l.DonorID] = true
		u, err := s.GetUser(ctx, l.DonorID)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		u.PasswordHash = ""
		users = append(users, u)
	}
	return users, nil
}

// deliveredListings maps listing id to true for listings whose pickup is delivered.
func (s Snapshot) deliveredListings() map[string]bool {
	out := make(map[string]bool)
	for _, p := range s.Pickups {
		if p.Status == models.PickupDelivered {
			out[p.ListingID] = true
		}
	}
	return out
}
