package allocator

import (
	"github.com/rs/zerolog/log"

	"StockPilot/internal/model"
)

// allocateEqualSplit implements the equal-split policy: every qualified
// candidate in a category shares its budget equally, so the position count
// varies with signal supply instead of being fixed per category.
func (a *Allocator) allocateEqualSplit(plan *model.AllocationPlan, candidates map[model.Category][]model.Candidate, effective float64) {
	for _, cat := range model.CategoryOrder {
		alloc := plan.Categories[cat]
		budget := a.budget(cat, effective)
		if budget <= 0 {
			continue
		}

		qualified := a.qualify(candidates[cat])
		if len(qualified) == 0 {
			log.Debug().Str("category", string(cat)).
				Msg("no qualified candidates, category budget goes to redistribution")
			continue
		}

		size := budget / float64(len(qualified))
		switch {
		case size < a.params.MinPositionSize:
			// Too many candidates for the budget: keep the best and resize.
			maxPositions := int(budget / a.params.MinPositionSize)
			if maxPositions < 1 {
				maxPositions = 1
			}
			if maxPositions < len(qualified) {
				log.Info().Str("category", string(cat)).Int("kept", maxPositions).
					Int("dropped", len(qualified)-maxPositions).
					Msg("truncated candidates to hold minimum position size")
				qualified = qualified[:maxPositions]
			}
			size = budget / float64(len(qualified))
			if size < a.params.MinPositionSize {
				// Budget itself is below the minimum; a single undersized
				// position is deliberate and visible, not a silent violation.
				log.Warn().Str("category", string(cat)).Float64("size", size).
					Float64("min", a.params.MinPositionSize).
					Msg("category budget below minimum position size")
			}
		case size > a.params.MaxPositionSize:
			log.Info().Str("category", string(cat)).Float64("uncapped", size).
				Float64("max", a.params.MaxPositionSize).
				Msg("position size capped, remainder left unspent")
			size = a.params.MaxPositionSize
		}

		selected := make([]model.SelectedPosition, len(qualified))
		for i, c := range qualified {
			selected[i] = model.SelectedPosition{
				Candidate:    c,
				Tier:         ClassifyTier(c),
				PositionSize: size,
			}
		}
		alloc.Selected = selected
		alloc.Positions = len(selected)
		alloc.CapitalPerPosition = size
		alloc.Capital = size * float64(len(selected))
	}
}
