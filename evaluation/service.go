package evaluation

import (
	"context"

	"foodbridge/analytics"
	"foodbridge/errs"
)

// Result is the evaluation payload. Models and Recommended are empty when
// the platform has too little delivered volume to score.
type Result struct {
	DataSufficient      bool    `json:"data_sufficient"`
	DeliveredPickups    int     `json:"delivered_pickups"`
	MinDeliveredPickups int     `json:"min_delivered_pickups"`
	Models              []Model `json:"models"`
	Recommended         string  `json:"recommended,omitempty"`
}

type totalsSource interface {
	PlatformTotals(ctx context.Context) (analytics.PlatformTotals, error)
}

type Service struct {
	Totals              totalsSource
	MinDeliveredPickups int
}

func NewService(totals totalsSource, minDelivered int) *Service {
	return &Service{Totals: totals, MinDeliveredPickups: minDelivered}
}

func (s *Service) Evaluate(ctx context.Context) (Result, error) {
	t, err := s.Totals.PlatformTotals(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		DeliveredPickups:    t.DeliveredPickups,
		MinDeliveredPickups: s.MinDeliveredPickups,
		Models:              []Model{},
	}
	if t.DeliveredPickups < s.MinDeliveredPickups {
		return res, nil
	}

	res.DataSufficient = true
	res.Models = Score(Inputs{
		TotalFoodKg:      t.TotalFoodKg.InexactFloat64(),
		Donors:           t.Donors,
		NGOs:             t.NGOs,
		TotalPickups:     t.TotalPickups,
		DeliveredPickups: t.DeliveredPickups,
	})
	if best, ok := Recommend(res.Models); ok {
		res.Recommended = best.Name
	}
	return res, nil
}

// Recommendation is Evaluate for callers that need a model; below the
// threshold it fails with errs.ErrInsufficientData.
func (s *Service) Recommendation(ctx context.Context) (Model, error) {
	res, err := s.Evaluate(ctx)
	if err != nil {
		return Model{}, err
	}
	if !res.DataSufficient {
		return Model{}, errs.New(errs.ErrInsufficientData, "%d of %d delivered pickups needed for evaluation", res.DeliveredPickups, res.MinDeliveredPickups)
	}
	for _, m := range res.Models {
		if m.Name == res.Recommended {
			return m, nil
		}
	}
	return Model{}, errs.New(errs.ErrInsufficientData, "no model could be scored")
}
