// Package pickups advances claimed pickups through their lifecycle and
// accepts redistribution records once they are delivered.
package pickups

import (
	"context"
	"strings"
	"time"

	"foodbridge/activity"
	"foodbridge/errs"
	"foodbridge/models"
	"foodbridge/mq"
	"foodbridge/store"

	"github.com/google/uuid"
)

// DefaultPortionSize is used when a redistribution omits portion_size.
const DefaultPortionSize = 0.5

type Manager struct {
	Store  store.Store
	Events mq.Publisher
	Audit  *activity.Recorder
	Now    func() time.Time
}

func NewManager(s store.Store, events mq.Publisher, audit *activity.Recorder) *Manager {
	return &Manager{Store: s, Events: events, Audit: audit, Now: time.Now}
}

func canOperate(actor models.Actor, p models.Pickup) bool {
	return actor.IsAdmin() || (actor.Role == models.RoleNGO && actor.ID == p.NGOID)
}

// canView also lets the donor of the listing follow the pickup.
func canView(actor models.Actor, p models.Pickup) bool {
	return canOperate(actor, p) || (actor.Role == models.RoleDonor && actor.ID == p.DonorID)
}

func (m *Manager) Get(ctx context.Context, actor models.Actor, id string) (models.Pickup, error) {
	p, err := m.Store.GetPickup(ctx, id)
	if err != nil {
		return models.Pickup{}, err
	}
	if !canView(actor, p) {
		return models.Pickup{}, errs.New(errs.ErrForbidden, "pickup belongs to another organization")
	}
	return p, nil
}

type ListQuery struct {
	Status    models.PickupStatus
	ListingID string
	NGOID     string
}

// List is scoped by role: NGOs see their claims, donors see claims on their
// listings, admins see everything.
func (m *Manager) List(ctx context.Context, actor models.Actor, q ListQuery) ([]models.Pickup, error) {
	if q.Status != "" && !ValidStatus(q.Status) {
		return nil, errs.Validation("unknown status %q", q.Status)
	}
	f := store.PickupFilter{Status: q.Status, ListingID: q.ListingID}
	switch actor.Role {
	case models.RoleNGO:
		f.NGOID = actor.ID
	case models.RoleDonor:
		f.DonorID = actor.ID
		f.NGOID = q.NGOID
	case models.RoleAdmin:
		f.NGOID = q.NGOID
	default:
		return nil, errs.New(errs.ErrForbidden, "unknown role")
	}
	return m.Store.ListPickups(ctx, f)
}

// Advance moves the pickup exactly one step. requested, when set, must name
// that step; it guards against a client acting on a stale view.
func (m *Manager) Advance(ctx context.Context, actor models.Actor, id string, requested models.PickupStatus, notes string) (models.Pickup, error) {
	p, err := m.Store.GetPickup(ctx, id)
	if err != nil {
		return models.Pickup{}, err
	}
	if !canOperate(actor, p) {
		return models.Pickup{}, errs.New(errs.ErrForbidden, "only the claiming NGO or an admin may advance this pickup")
	}
	if IsTerminal(p.Status) {
		return models.Pickup{}, errs.New(errs.ErrTerminalState, "pickup is already delivered")
	}
	next, ok := Successor(p.Status)
	if !ok {
		return models.Pickup{}, errs.New(errs.ErrInvalidState, "pickup has unknown status %q", p.Status)
	}
	if requested != "" && requested != next {
		return models.Pickup{}, errs.Validation("pickup is %s; the next status is %s, not %s", p.Status, next, requested)
	}

	now := m.Now().UTC()
	var note *models.TransitionNote
	if notes = strings.TrimSpace(notes); notes != "" {
		note = &models.TransitionNote{Status: next, Note: notes, At: now}
	}

	advanced, err := m.Store.AdvancePickup(ctx, id, p.Status, next, now, note, listingStatusFor(next))
	if err != nil {
		return models.Pickup{}, err
	}

	m.Audit.Record(ctx, actor.ID, actor.Email, activity.ActionAdvancePickup, "Pickup %s: %s -> %s", id, p.Status, next)
	mq.Emit(ctx, m.Events, mq.Event{
		Name:     mq.PickupAdvanced,
		EntityID: id,
		ActorID:  actor.ID,
		Payload:  map[string]any{"from": p.Status, "to": next, "listing_id": advanced.ListingID},
		At:       now,
	})
	return advanced, nil
}

type RedistributionInput struct {
	BeneficiariesCount int
	// PortionSize in kilograms; nil means DefaultPortionSize.
	PortionSize *float64
	Notes       string
}

// LogRedistribution records who received the food of a delivered pickup.
// A pickup takes at most one record; a second attempt is a conflict.
func (m *Manager) LogRedistribution(ctx context.Context, actor models.Actor, pickupID string, in RedistributionInput) (models.RedistributionRecord, error) {
	if in.BeneficiariesCount <= 0 {
		return models.RedistributionRecord{}, errs.Validation("beneficiaries_count must be greater than 0")
	}
	portion := DefaultPortionSize
	if in.PortionSize != nil {
		portion = *in.PortionSize
	}
	if portion <= 0 {
		return models.RedistributionRecord{}, errs.Validation("portion_size must be greater than 0")
	}

	p, err := m.Store.GetPickup(ctx, pickupID)
	if err != nil {
		return models.RedistributionRecord{}, err
	}
	if !canOperate(actor, p) {
		return models.RedistributionRecord{}, errs.New(errs.ErrForbidden, "only the claiming NGO or an admin may log redistribution")
	}
	if p.Status != models.PickupDelivered {
		return models.RedistributionRecord{}, errs.New(errs.ErrNotDelivered, "pickup is %s, not delivered", p.Status)
	}

	now := m.Now().UTC()
	rec := models.RedistributionRecord{
		ID:                 uuid.NewString(),
		PickupID:           p.ID,
		ListingID:          p.ListingID,
		NGOID:              p.NGOID,
		DonorID:            p.DonorID,
		BeneficiariesCount: in.BeneficiariesCount,
		PortionSize:        portion,
		Notes:              strings.TrimSpace(in.Notes),
		CreatedAt:          now,
	}
	if err := m.Store.CreateRedistribution(ctx, rec); err != nil {
		return models.RedistributionRecord{}, err
	}

	m.Audit.Record(ctx, actor.ID, actor.Email, activity.ActionRedistribution, "Redistributed pickup %s to %d beneficiaries", p.ID, rec.BeneficiariesCount)
	mq.Emit(ctx, m.Events, mq.Event{Name: mq.RedistributionLogged, EntityID: rec.ID, ActorID: actor.ID, Payload: rec, At: now})
	return rec, nil
}

func (m *Manager) GetRedistribution(ctx context.Context, actor models.Actor, pickupID string) (models.RedistributionRecord, error) {
	if _, err := m.Get(ctx, actor, pickupID); err != nil {
		return models.RedistributionRecord{}, err
	}
	return m.Store.GetRedistribution(ctx, pickupID)
}
