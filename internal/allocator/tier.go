package allocator

import (
	"sort"

	"StockPilot/internal/model"
)

// Tier thresholds. A candidate must clear both the score and the RS rating
// floor of a tier.
const (
	tierAScore = 70
	tierARS    = 90
	tierBScore = 65
	tierBRS    = 70
	tierCScore = 60
	tierCRS    = 60
)

// ClassifyTier assigns a conviction tier from (score, RS rating) alone.
// Pure function: independent of ordering and prior calls.
func ClassifyTier(c model.Candidate) model.Tier {
	switch {
	case c.Score >= tierAScore && c.RSRating >= tierARS:
		return model.TierA
	case c.Score >= tierBScore && c.RSRating >= tierBRS:
		return model.TierB
	case c.Score >= tierCScore && c.RSRating >= tierCRS:
		return model.TierC
	default:
		return model.TierNone
	}
}

// BucketTiers classifies candidates into tiers and sorts each tier by score
// descending. The sort is stable so input order breaks ties, keeping runs
// deterministic.
func BucketTiers(candidates []model.Candidate) map[model.Tier][]model.Candidate {
	tiers := map[model.Tier][]model.Candidate{}
	for _, c := range candidates {
		t := ClassifyTier(c)
		if t == model.TierNone {
			continue
		}
		tiers[t] = append(tiers[t], c)
	}
	for _, bucket := range tiers {
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].Score > bucket[j].Score })
	}
	return tiers
}
