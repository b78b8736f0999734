package analytics

import (
	"time"

	"foodbridge/models"

	"github.com/shopspring/decimal"
)

// Conversion factors applied to delivered quantity only.
var (
	MealsPerKg      = decimal.NewFromInt(2)
	CO2AvoidedPerKg = decimal.NewFromFloat(2.5)
)

const recentLimit = 10

type KPIs struct {
	TotalDonatedKg      float64 `json:"total_donated_kg"`
	DeliveredKg         float64 `json:"delivered_kg"`
	TotalListings       int     `json:"total_listings"`
	ActiveListings      int     `json:"active_listings"`
	TotalPickups        int     `json:"total_pickups"`
	CompletedPickups    int     `json:"completed_pickups"`
	PendingPickups      int     `json:"pending_pickups"`
	MealsServed         int64   `json:"meals_served"`
	CO2AvoidedKg        float64 `json:"co2_avoided_kg"`
	BeneficiariesServed int     `json:"beneficiaries_served"`
	ActiveDonors        int     `json:"active_donors,omitempty"`
	ActiveNGOs          int     `json:"active_ngos,omitempty"`
}

type Dashboard struct {
	Role           models.Role      `json:"role"`
	KPIs           KPIs             `json:"kpis"`
	RecentListings []models.Listing `json:"recent_listings"`
	RecentPickups  []models.Pickup  `json:"recent_pickups"`
}

// MealsServed is floor(2 x delivered kg).
func MealsServed(deliveredKg decimal.Decimal) int64 {
	return deliveredKg.Mul(MealsPerKg).Floor().IntPart()
}

// CO2Avoided is 2.5 x delivered kg, to one decimal place.
func CO2Avoided(deliveredKg decimal.Decimal) float64 {
	return deliveredKg.Mul(CO2AvoidedPerKg).Round(1).InexactFloat64()
}

func kg(d decimal.Decimal) float64 {
	return d.Round(1).InexactFloat64()
}

// isPending covers pickups not yet collected.
func isPending(s models.PickupStatus) bool {
	return s == models.PickupPending || s == models.PickupAccepted || s == models.PickupEnRoute
}

// ComputeKPIs derives the headline figures. Listings carry lazy expiry, so
// active means available at now.
func ComputeKPIs(snap Snapshot, now time.Time) KPIs {
	var k KPIs
	total := decimal.Zero
	for _, l := range snap.Listings {
		total = total.Add(decimal.NewFromFloat(l.Quantity))
		if l.EffectiveStatus(now) == models.ListingAvailable {
			k.ActiveListings++
		}
	}
	k.TotalListings = len(snap.Listings)

	delivered := decimal.Zero
	for _, p := range snap.Pickups {
		switch {
		case p.Status == models.PickupDelivered:
			k.CompletedPickups++
			delivered = delivered.Add(decimal.NewFromFloat(p.ListingQuantity))
		case isPending(p.Status):
			k.PendingPickups++
		}
	}
	k.TotalPickups = len(snap.Pickups)

	for _, r := range snap.Records {
		k.BeneficiariesServed += r.BeneficiariesCount
	}
	for _, u := range snap.Users {
		switch u.Role {
		case models.RoleDonor:
			k.ActiveDonors++
		case models.RoleNGO:
			k.ActiveNGOs++
		}
	}
	if snap.Role != models.RoleAdmin {
		k.ActiveDonors, k.ActiveNGOs = 0, 0
	}

	k.TotalDonatedKg = kg(total)
	k.DeliveredKg = kg(delivered)
	k.MealsServed = MealsServed(delivered)
	k.CO2AvoidedKg = CO2Avoided(delivered)
	return k
}

func BuildDashboard(snap Snapshot, now time.Time) Dashboard {
	d := Dashboard{
		Role:           snap.Role,
		KPIs:           ComputeKPIs(snap, now),
		RecentListings: []models.Listing{},
		RecentPickups:  []models.Pickup{},
	}
	// Store lists are newest first.
	for i, l := range snap.Listings {
		if i == recentLimit {
			break
		}
		l.Status = l.EffectiveStatus(now)
		d.RecentListings = append(d.RecentListings, l)
	}
	for i, p := range snap.Pickups {
		if i == recentLimit {
			break
		}
		d.RecentPickups = append(d.RecentPickups, p)
	}
	return d
}
