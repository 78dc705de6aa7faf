package model

// Category is a market-capitalization bucket with its own budget fraction.
type Category string

const (
	CategoryLarge Category = "large"
	CategoryMid   Category = "mid"
	CategoryMicro Category = "micro"
)

// CategoryOrder is the fixed iteration order for all category-scoped work.
// Iterating a map would make allocation non-deterministic.
var CategoryOrder = []Category{CategoryLarge, CategoryMid, CategoryMicro}

// Tier is a conviction bucket derived from (score, RS rating).
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	// TierNone marks a candidate that failed every tier threshold.
	TierNone Tier = ""
)

// Candidate is an immutable snapshot of a screened stock for one run.
// Produced by the external screener, consumed read-only by the allocator.
// Optional screener fields are named here rather than passed through as a
// loose key set, so the allocator can never overwrite one by accident.
type Candidate struct {
	Ticker   string
	Category Category
	Score    float64
	RSRating float64

	// Optional fields carried verbatim from the screener.
	Price           float64
	ATRPct          float64
	IndicatorsFired []string
}
