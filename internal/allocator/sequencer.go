package allocator

import "StockPilot/internal/model"

// entryPattern is the category rotation for order submission. Front-loading
// large caps means the most liquid names fill first if capital or the session
// runs out mid-sequence.
var entryPattern = []model.Category{
	model.CategoryLarge,
	model.CategoryLarge,
	model.CategoryLarge,
	model.CategoryMid,
	model.CategoryMicro,
}

// Sequence flattens an allocation plan into the order in which positions
// should be entered. Categories are visited in the rotation pattern, cycling
// until every selected position is emitted; exhausted categories are skipped.
func Sequence(plan *model.AllocationPlan) []model.SelectedPosition {
	remaining := 0
	next := map[model.Category]int{}
	for _, cat := range model.CategoryOrder {
		remaining += len(plan.Category(cat).Selected)
	}

	out := make([]model.SelectedPosition, 0, remaining)
	for i := 0; remaining > 0; i++ {
		cat := entryPattern[i%len(entryPattern)]
		sel := plan.Category(cat).Selected
		if next[cat] >= len(sel) {
			continue
		}
		out = append(out, sel[next[cat]])
		next[cat]++
		remaining--
	}
	return out
}
