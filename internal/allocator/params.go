package allocator

import (
	"fmt"

	"StockPilot/internal/model"
)

// Policy selects how a category budget is divided among candidates.
type Policy string

const (
	// PolicyEqualSplit gives every qualified candidate an equal share of the
	// category budget, with the position count varying by signal supply.
	PolicyEqualSplit Policy = "equal_split"
	// PolicyTiered buckets candidates into conviction tiers and sizes the
	// best names larger within per-tier bands.
	PolicyTiered Policy = "tiered"
)

// ParsePolicy converts a config string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyEqualSplit, PolicyTiered:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown allocation policy %q", s)
}

// Params are the externally configurable allocation parameters. One Params
// value per strategy; never mutated by the allocator.
type Params struct {
	Policy          Policy
	Targets         map[model.Category]float64
	MinPositionSize float64
	MaxPositionSize float64
	MinScore        float64
	MinRSRating     float64
}

// DefaultParams returns the recognized defaults: 60/20/20 split,
// ₹20k–100k position bounds, score and RS floors of 60.
func DefaultParams() Params {
	return Params{
		Policy: PolicyEqualSplit,
		Targets: map[model.Category]float64{
			model.CategoryLarge: 0.60,
			model.CategoryMid:   0.20,
			model.CategoryMicro: 0.20,
		},
		MinPositionSize: 20000,
		MaxPositionSize: 100000,
		MinScore:        60,
		MinRSRating:     60,
	}
}
