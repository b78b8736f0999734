// Package evaluation scores a fixed catalog of redistribution models against
// platform totals and recommends one.
package evaluation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Weights of the overall score.
var (
	WeightFeasibility   = decimal.RequireFromString("0.3")
	WeightEnvironmental = decimal.RequireFromString("0.3")
	WeightCost          = decimal.RequireFromString("0.2")
	WeightSocial        = decimal.RequireFromString("0.2")
)

const (
	FoodRecoveryHubs = "Food Recovery Hubs"
	WasteTechnology  = "Waste Technology"
	HybridModel      = "Hybrid Model"
)

var descriptions = map[string]string{
	FoodRecoveryHubs: "Centralized collection points where donors drop off surplus food for NGOs to pick up and redistribute.",
	WasteTechnology:  "Composting and biogas solutions to convert non-redistributable food waste into useful resources.",
	HybridModel:      "Combines food recovery hubs with waste technology for maximum impact and efficiency.",
}

type Inputs struct {
	TotalFoodKg      float64
	Donors           int
	NGOs             int
	TotalPickups     int
	DeliveredPickups int
}

// Model is one scored archetype. Sub-scores are in [0,100] to one decimal.
type Model struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Feasibility   float64 `json:"feasibility"`
	Cost          float64 `json:"cost"`
	Environmental float64 `json:"environmental"`
	Social        float64 `json:"social"`
	Overall       float64 `json:"overall"`
}

type raw struct {
	feasibility, cost, environmental, social float64
}

func capAt(limit, v float64) float64 {
	if v > limit {
		return limit
	}
	if v < 0 {
		return 0
	}
	return v
}

func round1(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(1)
}

// Overall weights the rounded sub-scores and rounds to the same precision.
func Overall(feasibility, cost, environmental, social decimal.Decimal) decimal.Decimal {
	return feasibility.Mul(WeightFeasibility).
		Add(environmental.Mul(WeightEnvironmental)).
		Add(cost.Mul(WeightCost)).
		Add(social.Mul(WeightSocial)).
		Round(1)
}

func (r raw) model(name string) Model {
	f, c, e, s := round1(r.feasibility), round1(r.cost), round1(r.environmental), round1(r.social)
	return Model{
		Name:          name,
		Description:   descriptions[name],
		Feasibility:   f.InexactFloat64(),
		Cost:          c.InexactFloat64(),
		Environmental: e.InexactFloat64(),
		Social:        s.InexactFloat64(),
		Overall:       Overall(f, c, e, s).InexactFloat64(),
	}
}

// Score computes every archetype from in.
//
//	pickup rate    = delivered / max(pickups, 1) x 100
//	donor density  = donors / max(ngos, 1)
//	scale          = min(kg / 1000, 1), or 0.1 with no food listed
//
// Hub and waste-technology scores are linear in these with per-score caps;
// the hybrid averages the two and adds a bonus, again capped.
func Score(in Inputs) []Model {
	pickupRate := float64(in.DeliveredPickups) / float64(max(in.TotalPickups, 1)) * 100
	donorDensity := float64(in.Donors) / float64(max(in.NGOs, 1))
	scale := 0.1
	if in.TotalFoodKg > 0 {
		scale = min(in.TotalFoodKg/1000, 1)
	}
	ngos := float64(in.NGOs)

	hub := raw{
		feasibility:   capAt(95, 40+donorDensity*10+scale*30),
		cost:          capAt(90, 30+scale*20+pickupRate*0.3),
		environmental: capAt(95, 50+pickupRate*0.4+scale*20),
		social:        capAt(90, 45+ngos*5+scale*15),
	}
	tech := raw{
		feasibility:   capAt(85, 25+scale*40+donorDensity*5),
		cost:          capAt(75, 20+scale*30),
		environmental: capAt(98, 60+scale*25+pickupRate*0.2),
		social:        capAt(70, 30+ngos*3+scale*10),
	}
	hybrid := raw{
		feasibility:   capAt(92, (hub.feasibility+tech.feasibility)/2+10),
		cost:          capAt(85, (hub.cost+tech.cost)/2+5),
		environmental: capAt(96, (hub.environmental+tech.environmental)/2+5),
		social:        capAt(88, (hub.social+tech.social)/2+8),
	}

	return []Model{
		hub.model(FoodRecoveryHubs),
		tech.model(WasteTechnology),
		hybrid.model(HybridModel),
	}
}

// Recommend returns the model with the greatest overall score, breaking ties
// by ascending name. ok is false for an empty slice.
func Recommend(models []Model) (best Model, ok bool) {
	if len(models) == 0 {
		return Model{}, false
	}
	ranked := append([]Model(nil), models...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Overall != ranked[j].Overall {
			return ranked[i].Overall > ranked[j].Overall
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked[0], true
}
