package pickups

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"foodbridge/activity"
	"foodbridge/errs"
	"foodbridge/models"
	"foodbridge/reservations"
	"foodbridge/store"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

var (
	ngoActor   = models.Actor{ID: "ngo-1", Role: models.RoleNGO}
	otherNGO   = models.Actor{ID: "ngo-2", Role: models.RoleNGO}
	donorActor = models.Actor{ID: "d1", Role: models.RoleDonor}
	adminActor = models.Actor{ID: "admin", Role: models.RoleAdmin}
)

// claimed returns a manager plus a freshly claimed pickup on a 20 kg listing.
func claimed(t *testing.T) (*Manager, *store.MemoryStore, models.Pickup) {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	err := s.CreateListing(ctx, models.Listing{
		ID: "l1", DonorID: "d1", FoodName: "Rice", Quantity: 20,
		Status: models.ListingAvailable, ExpiryTime: now.Add(4 * time.Hour), CreatedAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	c := reservations.NewCoordinator(s, nil, nil)
	c.Now = func() time.Time { return now }
	p, err := c.Claim(ctx, ngoActor, "l1", "")
	if err != nil {
		t.Fatal(err)
	}
	m := NewManager(s, nil, nil)
	m.Now = func() time.Time { return now.Add(time.Minute) }
	return m, s, p
}

func advanceTo(t *testing.T, m *Manager, id string, target models.PickupStatus) models.Pickup {
	t.Helper()
	for {
		p, err := m.Store.GetPickup(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if p.Status == target {
			return p
		}
		if _, err := m.Advance(context.Background(), ngoActor, id, "", ""); err != nil {
			t.Fatalf("advance from %s: %v", p.Status, err)
		}
	}
}

func TestAdvanceWalksLifecycleOneStepAtATime(t *testing.T) {
	m, s, p := claimed(t)
	ctx := context.Background()

	wantListing := map[models.PickupStatus]models.ListingStatus{
		models.PickupAccepted:  models.ListingReserved,
		models.PickupEnRoute:   models.ListingReserved,
		models.PickupCollected: models.ListingPickedUp,
		models.PickupDelivered: models.ListingDelivered,
	}
	prev := p.Status
	for i := 0; i < 4; i++ {
		got, err := m.Advance(ctx, ngoActor, p.ID, "", "step")
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		want, _ := Successor(prev)
		if got.Status != want {
			t.Fatalf("expected %s after %s, got %s", want, prev, got.Status)
		}
		if _, ok := got.ReachedAt(want); !ok {
			t.Errorf("no timestamp for %s", want)
		}
		l, _ := s.GetListing(ctx, "l1")
		if l.Status != wantListing[want] {
			t.Errorf("pickup %s: listing is %s, want %s", want, l.Status, wantListing[want])
		}
		prev = got.Status
	}

	final, _ := s.GetPickup(ctx, p.ID)
	if len(final.Notes) != 4 || len(final.Timestamps) != 5 {
		t.Errorf("expected 4 notes and 5 timestamps, got %d and %d", len(final.Notes), len(final.Timestamps))
	}
	for i := 0; i < 3; i++ {
		if _, err := m.Advance(ctx, adminActor, p.ID, "", ""); !errors.Is(err, errs.ErrTerminalState) {
			t.Errorf("advance past delivered: expected terminal state, got %v", err)
		}
	}
}

func TestAdvanceRejections(t *testing.T) {
	m, _, p := claimed(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		actor     models.Actor
		id        string
		requested models.PickupStatus
		want      error
	}{
		{"unknown pickup", ngoActor, "nope", "", errs.ErrNotFound},
		{"donor observes only", donorActor, p.ID, "", errs.ErrForbidden},
		{"other ngo", otherNGO, p.ID, "", errs.ErrForbidden},
		{"skip ahead", ngoActor, p.ID, models.PickupDelivered, errs.ErrValidation},
		{"admin cannot skip either", adminActor, p.ID, models.PickupCollected, errs.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Advance(ctx, tt.actor, tt.id, tt.requested, ""); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	got, err := m.Advance(ctx, adminActor, p.ID, models.PickupAccepted, "")
	if err != nil || got.Status != models.PickupAccepted {
		t.Errorf("admin naming the next step should succeed, got %v, %v", got.Status, err)
	}
}

func TestConcurrentAdvanceMovesOnce(t *testing.T) {
	m, s, p := claimed(t)

	var wg sync.WaitGroup
	errCh := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Advance(context.Background(), ngoActor, p.ID, models.PickupAccepted, "")
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	ok := 0
	for err := range errCh {
		if err == nil {
			ok++
		}
	}
	if ok != 1 {
		t.Errorf("expected exactly one advance to succeed, got %d", ok)
	}
	final, _ := s.GetPickup(context.Background(), p.ID)
	if final.Status != models.PickupAccepted {
		t.Errorf("pickup moved past accepted: %s", final.Status)
	}
}

func TestLogRedistribution(t *testing.T) {
	m, _, p := claimed(t)
	ctx := context.Background()
	half := 0.5

	_, err := m.LogRedistribution(ctx, ngoActor, p.ID, RedistributionInput{BeneficiariesCount: 50, PortionSize: &half})
	if !errors.Is(err, errs.ErrNotDelivered) {
		t.Fatalf("pending pickup: expected not delivered, got %v", err)
	}
	advanceTo(t, m, p.ID, models.PickupCollected)
	if _, err := m.LogRedistribution(ctx, ngoActor, p.ID, RedistributionInput{BeneficiariesCount: 50, PortionSize: &half}); !errors.Is(err, errs.ErrNotDelivered) {
		t.Fatalf("collected pickup: expected not delivered, got %v", err)
	}
	advanceTo(t, m, p.ID, models.PickupDelivered)

	rec, err := m.LogRedistribution(ctx, ngoActor, p.ID, RedistributionInput{BeneficiariesCount: 50, PortionSize: &half})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	got, err := m.GetRedistribution(ctx, ngoActor, p.ID)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got.ID != rec.ID || got.BeneficiariesCount != 50 || got.PortionSize != 0.5 {
		t.Errorf("unexpected record %+v", got)
	}
	if got.DonorID != "d1" || got.ListingID != "l1" {
		t.Errorf("record not linked to listing: %+v", got)
	}

	if _, err := m.LogRedistribution(ctx, ngoActor, p.ID, RedistributionInput{BeneficiariesCount: 5}); !errors.Is(err, errs.ErrConflict) {
		t.Errorf("second record: expected conflict, got %v", err)
	}
}

func TestLogRedistributionValidation(t *testing.T) {
	m, _, p := claimed(t)
	ctx := context.Background()
	advanceTo(t, m, p.ID, models.PickupDelivered)
	zero := 0.0

	tests := []struct {
		name  string
		actor models.Actor
		in    RedistributionInput
		want  error
	}{
		{"zero beneficiaries", ngoActor, RedistributionInput{BeneficiariesCount: 0}, errs.ErrValidation},
		{"zero portion", ngoActor, RedistributionInput{BeneficiariesCount: 3, PortionSize: &zero}, errs.ErrValidation},
		{"other ngo", otherNGO, RedistributionInput{BeneficiariesCount: 3}, errs.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.LogRedistribution(ctx, tt.actor, p.ID, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	rec, err := m.LogRedistribution(ctx, ngoActor, p.ID, RedistributionInput{BeneficiariesCount: 3})
	if err != nil || rec.PortionSize != DefaultPortionSize {
		t.Errorf("default portion not applied: %+v, %v", rec, err)
	}
}

func TestListScopedByRole(t *testing.T) {
	m, _, p := claimed(t)
	ctx := context.Background()

	for _, tt := range []struct {
		actor models.Actor
		want  int
	}{
		{ngoActor, 1},
		{otherNGO, 0},
		{donorActor, 1},
		{models.Actor{ID: "d9", Role: models.RoleDonor}, 0},
		{adminActor, 1},
	} {
		got, err := m.List(ctx, tt.actor, ListQuery{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("%s/%s: expected %d pickups, got %d", tt.actor.Role, tt.actor.ID, tt.want, len(got))
		}
	}
	if _, err := m.Get(ctx, otherNGO, p.ID); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("other ngo reading pickup: expected forbidden, got %v", err)
	}
}

func TestAuditEntriesCarryActorEmail(t *testing.T) {
	m, s, p := claimed(t)
	m.Audit = activity.NewRecorder(s)
	ctx := context.Background()
	actor := models.Actor{ID: ngoActor.ID, Role: models.RoleNGO, Email: "shelter@example.org"}

	for _, next := range []models.PickupStatus{models.PickupAccepted, models.PickupEnRoute, models.PickupCollected, models.PickupDelivered} {
		if _, err := m.Advance(ctx, actor, p.ID, next, ""); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if _, err := m.LogRedistribution(ctx, actor, p.ID, RedistributionInput{BeneficiariesCount: 12}); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListAudit(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 audit entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.UserEmail != "shelter@example.org" {
			t.Errorf("%s entry has email %q", e.Action, e.UserEmail)
		}
	}
}
