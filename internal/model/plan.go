package model

// SelectedPosition is a candidate the allocator committed to the plan,
// with its assigned tier and rupee size.
type SelectedPosition struct {
	Candidate
	Tier         Tier
	PositionSize float64
}

// CategoryAllocation holds one category's share of an allocation plan.
type CategoryAllocation struct {
	Positions          int
	Capital            float64
	CapitalPerPosition float64 // equal-split only; tiered sizes vary per position
	Selected           []SelectedPosition
}

// AllocationPlan is the allocator's output: a bounded set of sized positions
// per category. Built in one pass and never mutated afterwards; re-runs
// rebuild from scratch.
type AllocationPlan struct {
	Strategy       Strategy
	TotalCapital   float64 // effective capital after the regime multiplier
	Regime         Regime
	Multiplier     float64
	Categories     map[Category]*CategoryAllocation
	TotalPositions int
	TotalDeployed  float64
	// Reason explains an empty plan: "regime blocked" is distinct from
	// "no qualified candidates".
	Reason string
}

// Category returns the allocation for cat, or an empty one if the plan has
// none. Never returns nil so callers can range over Selected directly.
func (p *AllocationPlan) Category(cat Category) *CategoryAllocation {
	if a, ok := p.Categories[cat]; ok && a != nil {
		return a
	}
	return &CategoryAllocation{}
}
