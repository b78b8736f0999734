package analytics

import (
	"context"
	"time"

	"foodbridge/models"
	"foodbridge/store"

	"github.com/shopspring/decimal"
)

type Service struct {
	Store     store.Store
	ChartDays int
	Now       func() time.Time
}

func NewService(s store.Store, chartDays int) *Service {
	return &Service{Store: s, ChartDays: chartDays, Now: time.Now}
}

func (s *Service) Dashboard(ctx context.Context, actor models.Actor) (Dashboard, error) {
	snap, err := Load(ctx, s.Store, actor)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(snap, s.Now().UTC()), nil
}

// Charts covers the last days UTC days; days outside 1..365 fall back to
// the configured window or are clamped.
func (s *Service) Charts(ctx context.Context, actor models.Actor, days int, view CategoryView) (Charts, error) {
	snap, err := Load(ctx, s.Store, actor)
	if err != nil {
		return Charts{}, err
	}
	if view != ViewDelivered {
		view = ViewAll
	}
	return BuildCharts(snap, s.Now().UTC(), ClampDays(days, s.ChartDays), view), nil
}

// PlatformTotals are the platform-wide inputs of the evaluation engine.
type PlatformTotals struct {
	TotalFoodKg      decimal.Decimal
	Donors           int
	NGOs             int
	TotalPickups     int
	DeliveredPickups int
}

func (s *Service) PlatformTotals(ctx context.Context) (PlatformTotals, error) {
	snap, err := Load(ctx, s.Store, models.Actor{Role: models.RoleAdmin})
	if err != nil {
		return PlatformTotals{}, err
	}
	var t PlatformTotals
	for _, l := range snap.Listings {
		t.TotalFoodKg = t.TotalFoodKg.Add(decimal.NewFromFloat(l.Quantity))
	}
	for _, u := range snap.Users {
		switch u.Role {
		case models.RoleDonor:
			t.Donors++
		case models.RoleNGO:
			t.NGOs++
		}
	}
	t.TotalPickups = len(snap.Pickups)
	for _, p := range snap.Pickups {
		if p.Status == models.PickupDelivered {
			t.DeliveredPickups++
		}
	}
	return t, nil
}
