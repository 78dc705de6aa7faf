package allocator

import (
	"github.com/rs/zerolog/log"

	"StockPilot/internal/model"
)

// tierBands are the per-tier position size bounds in rupees.
var tierBands = map[model.Tier]struct{ Min, Max float64 }{
	model.TierA: {Min: 50000, Max: 100000},
	model.TierB: {Min: 40000, Max: 70000},
	model.TierC: {Min: 20000, Max: 40000},
}

// tierTake is the maximum number of names taken per tier per category.
const tierTake = 2

// allocateTiered implements the tiered policy: candidates are bucketed by
// conviction tier, each tier gets a sub-budget of the category budget, and
// only the top names per tier are taken, sized within the tier's band.
func (a *Allocator) allocateTiered(plan *model.AllocationPlan, candidates map[model.Category][]model.Candidate, effective float64) {
	for _, cat := range model.CategoryOrder {
		alloc := plan.Categories[cat]
		budget := a.budget(cat, effective)
		if budget <= 0 || len(candidates[cat]) == 0 {
			continue
		}

		tiers := BucketTiers(candidates[cat])
		budgets := tierBudgets(budget, len(tiers[model.TierA]) > 0, len(tiers[model.TierB]) > 0)

		for _, tier := range []model.Tier{model.TierA, model.TierB, model.TierC} {
			bucket := tiers[tier]
			sub := budgets[tier]
			if len(bucket) == 0 || sub <= 0 {
				continue
			}
			// Tier C is skipped outright when its sub-budget is too small to
			// carry a real position.
			if tier == model.TierC && sub <= a.params.MinPositionSize {
				log.Debug().Str("category", string(cat)).Float64("sub_budget", sub).
					Msg("tier C sub-budget too small, skipped")
				continue
			}

			band := tierBands[tier]
			take := tierTake
			if len(bucket) < take {
				take = len(bucket)
			}
			// Clamping up to the band minimum must never overspend the
			// sub-budget, so shrink the take count until each name is
			// affordable. A tier that cannot fund a single minimum-size
			// position is skipped.
			if affordable := int(sub / band.Min); affordable < take {
				take = affordable
			}
			if take == 0 {
				log.Debug().Str("category", string(cat)).Str("tier", string(tier)).
					Float64("sub_budget", sub).Msg("tier sub-budget below band minimum, skipped")
				continue
			}
			// Size is fixed from the pre-veto take count: a veto removes the
			// name but does not inflate the survivors.
			size := clampBand(sub/float64(take), band)
			for _, c := range bucket[:take] {
				if a.vetoed(c.Ticker) {
					continue
				}
				alloc.Selected = append(alloc.Selected, model.SelectedPosition{
					Candidate:    c,
					Tier:         tier,
					PositionSize: size,
				})
			}
		}

		alloc.Positions = len(alloc.Selected)
		for _, sel := range alloc.Selected {
			alloc.Capital += sel.PositionSize
		}
		if alloc.Positions > 0 {
			alloc.CapitalPerPosition = alloc.Capital / float64(alloc.Positions)
		}
	}
}

// tierBudgets splits a category budget across tiers. The split shifts toward
// lower tiers when higher ones are empty so the budget is not stranded.
func tierBudgets(budget float64, hasA, hasB bool) map[model.Tier]float64 {
	switch {
	case hasA:
		return map[model.Tier]float64{
			model.TierA: budget * 0.60,
			model.TierB: budget * 0.20,
			model.TierC: budget * 0.20,
		}
	case hasB:
		return map[model.Tier]float64{
			model.TierB: budget * 0.80,
			model.TierC: budget * 0.20,
		}
	default:
		return map[model.Tier]float64{model.TierC: budget}
	}
}

func clampBand(size float64, band struct{ Min, Max float64 }) float64 {
	if size < band.Min {
		return band.Min
	}
	if size > band.Max {
		return band.Max
	}
	return size
}
