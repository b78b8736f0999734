package evaluation

import (
	"context"
	"errors"
	"testing"

	"foodbridge/analytics"
	"foodbridge/errs"

	"github.com/shopspring/decimal"
)

func byName(models []Model) map[string]Model {
	out := make(map[string]Model, len(models))
	for _, m := range models {
		out[m.Name] = m
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		in          Inputs
		hub         Model
		hybridTotal float64
		recommended string
	}{
		{
			name:        "empty platform",
			in:          Inputs{},
			hub:         Model{Feasibility: 43, Cost: 32, Environmental: 52, Social: 46.5, Overall: 44.2},
			hybridTotal: 48.4,
			recommended: HybridModel,
		},
		{
			name:        "mid-size platform",
			in:          Inputs{TotalFoodKg: 500, Donors: 4, NGOs: 2, TotalPickups: 5, DeliveredPickups: 4},
			hub:         Model{Feasibility: 75, Cost: 64, Environmental: 92, Social: 62.5, Overall: 75.4},
			hybridTotal: 74,
			recommended: FoodRecoveryHubs,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := Score(tt.in)
			if len(models) != 3 {
				t.Fatalf("expected 3 models, got %d", len(models))
			}
			got := byName(models)
			hub := got[FoodRecoveryHubs]
			if hub.Feasibility != tt.hub.Feasibility || hub.Cost != tt.hub.Cost ||
				hub.Environmental != tt.hub.Environmental || hub.Social != tt.hub.Social ||
				hub.Overall != tt.hub.Overall {
				t.Errorf("hub scores: got %+v, want %+v", hub, tt.hub)
			}
			if got[HybridModel].Overall != tt.hybridTotal {
				t.Errorf("hybrid overall: got %v, want %v", got[HybridModel].Overall, tt.hybridTotal)
			}
			best, _ := Recommend(models)
			if best.Name != tt.recommended {
				t.Errorf("recommended %s, want %s", best.Name, tt.recommended)
			}
			for _, m := range models {
				for _, v := range []float64{m.Feasibility, m.Cost, m.Environmental, m.Social, m.Overall} {
					if v < 0 || v > 100 {
						t.Errorf("%s score %v out of range", m.Name, v)
					}
				}
				if m.Description == "" {
					t.Errorf("%s has no description", m.Name)
				}
			}
		})
	}
}

func TestScoresAreCapped(t *testing.T) {
	got := byName(Score(Inputs{TotalFoodKg: 1e6, Donors: 500, NGOs: 1, TotalPickups: 10, DeliveredPickups: 10}))
	if got[FoodRecoveryHubs].Feasibility != 95 || got[WasteTechnology].Feasibility != 85 || got[HybridModel].Feasibility != 92 {
		t.Errorf("feasibility caps not applied: %+v", got)
	}
}

func TestOverallWeights(t *testing.T) {
	d := decimal.RequireFromString
	got := Overall(d("80"), d("60"), d("90"), d("70"))
	// 0.3*80 + 0.3*90 + 0.2*60 + 0.2*70
	if !got.Equal(d("77")) {
		t.Errorf("expected 77, got %s", got)
	}
}

func TestRecommendBreaksTiesByName(t *testing.T) {
	models := []Model{
		{Name: FoodRecoveryHubs, Overall: 72.5},
		{Name: WasteTechnology, Overall: 81.0},
		{Name: HybridModel, Overall: 81.0},
	}
	best, ok := Recommend(models)
	if !ok || best.Name != HybridModel {
		t.Errorf("expected %s, got %s", HybridModel, best.Name)
	}
	if models[0].Name != FoodRecoveryHubs {
		t.Error("Recommend reordered its input")
	}
	if _, ok := Recommend(nil); ok {
		t.Error("empty catalog has no recommendation")
	}
}

type fixedTotals analytics.PlatformTotals

func (f fixedTotals) PlatformTotals(context.Context) (analytics.PlatformTotals, error) {
	return analytics.PlatformTotals(f), nil
}

func TestEvaluateGatesOnDeliveredPickups(t *testing.T) {
	below := NewService(fixedTotals{TotalFoodKg: decimal.NewFromInt(800), Donors: 3, NGOs: 2, TotalPickups: 6, DeliveredPickups: 2}, 3)
	res, err := below.Evaluate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.DataSufficient || len(res.Models) != 0 || res.Recommended != "" {
		t.Errorf("expected no scores below threshold, got %+v", res)
	}
	if _, err := below.Recommendation(context.Background()); !errors.Is(err, errs.ErrInsufficientData) {
		t.Errorf("expected insufficient data, got %v", err)
	}

	enough := NewService(fixedTotals{TotalFoodKg: decimal.NewFromInt(800), Donors: 3, NGOs: 2, TotalPickups: 6, DeliveredPickups: 3}, 3)
	res, err = enough.Evaluate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.DataSufficient || len(res.Models) != 3 || res.Recommended == "" {
		t.Errorf("expected scored result, got %+v", res)
	}
	m, err := enough.Recommendation(context.Background())
	if err != nil || m.Name != res.Recommended {
		t.Errorf("recommendation mismatch: %+v, %v", m, err)
	}
}
