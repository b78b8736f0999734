// Package reservations turns an available listing into a pending pickup.
package reservations

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodbridge/activity"
	"foodbridge/errs"
	"foodbridge/models"
	"foodbridge/mq"
	"foodbridge/store"

	"github.com/google/uuid"
)

// Coordinator runs the claim protocol. The store makes the reserve and the
// pickup insert a single compare-and-set on the listing, so losing claimants
// get errs.ErrConflict and nothing partial is ever visible.
type Coordinator struct {
	Store  store.Store
	Events mq.Publisher
	Audit  *activity.Recorder
	Now    func() time.Time
}

func NewCoordinator(s store.Store, events mq.Publisher, audit *activity.Recorder) *Coordinator {
	return &Coordinator{Store: s, Events: events, Audit: audit, Now: time.Now}
}

// Claim reserves listingID for the calling NGO. Admins may claim on behalf
// of themselves for support cases.
func (c *Coordinator) Claim(ctx context.Context, actor models.Actor, listingID, notes string) (models.Pickup, error) {
	if actor.Role != models.RoleNGO && !actor.IsAdmin() {
		return models.Pickup{}, errs.New(errs.ErrForbidden, "only NGOs can claim listings")
	}
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return models.Pickup{}, errs.Validation("listing_id is required")
	}

	ngoName, email := "", ""
	ngo, err := c.Store.GetUser(ctx, actor.ID)
	switch {
	case err == nil:
		ngoName, email = ngo.DisplayName(), ngo.Email
	case !errors.Is(err, errs.ErrNotFound):
		return models.Pickup{}, err
	}

	now := c.Now().UTC()
	p := models.Pickup{
		ID:         uuid.NewString(),
		NGOID:      actor.ID,
		NGOName:    ngoName,
		Status:     models.PickupPending,
		Timestamps: map[string]time.Time{string(models.PickupPending): now},
		Notes:      []models.TransitionNote{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		p.Notes = append(p.Notes, models.TransitionNote{Status: models.PickupPending, Note: notes, At: now})
	}

	claimed, err := c.Store.ClaimListing(ctx, listingID, p)
	if err != nil {
		return models.Pickup{}, err
	}

	c.Audit.Record(ctx, actor.ID, email, activity.ActionClaimListing, "Claimed listing: %s", claimed.ListingName)
	mq.Emit(ctx, c.Events, mq.Event{Name: mq.ListingClaimed, EntityID: listingID, ActorID: actor.ID, Payload: claimed, At: now})
	return claimed, nil
}
