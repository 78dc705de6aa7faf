// Package allocator turns scored candidate stocks into a bounded set of
// sized positions, respecting per-category budgets, quality tiers, position
// size bounds, historical-loss vetoes, and the market-regime multiplier.
package allocator

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"StockPilot/internal/history"
	"StockPilot/internal/model"
)

// ExitVeto checks whether a ticker recently stopped out and must be skipped.
type ExitVeto interface {
	Veto(ticker string) (*history.ExitRecord, error)
}

// Allocator computes allocation plans. Stateless between runs: every call to
// Allocate builds a fresh plan from scratch.
type Allocator struct {
	params Params
	exits  ExitVeto
}

// New creates an Allocator. A nil exits filter disables the historical veto.
func New(params Params, exits ExitVeto) *Allocator {
	return &Allocator{params: params, exits: exits}
}

// Allocate builds the allocation plan for one run. totalCapital is the
// strategy's deployable capital before the regime multiplier; the plan's
// TotalCapital is the effective capital after it. The plan is never nil:
// zero-position outcomes carry a Reason distinguishing "regime blocked"
// from "no qualified candidates".
func (a *Allocator) Allocate(
	strategy model.Strategy,
	candidates map[model.Category][]model.Candidate,
	totalCapital float64,
	state *model.RegimeState,
) *model.AllocationPlan {
	plan := &model.AllocationPlan{
		Strategy:   strategy,
		Regime:     state.Regime,
		Multiplier: state.SizeMultiplier,
		Categories: make(map[model.Category]*model.CategoryAllocation, len(model.CategoryOrder)),
	}
	for _, cat := range model.CategoryOrder {
		plan.Categories[cat] = &model.CategoryAllocation{}
	}

	if !state.AllowNewEntries || state.SizeMultiplier <= 0 {
		plan.Reason = fmt.Sprintf("regime blocked: %s regime forbids new entries", state.Regime)
		log.Info().Str("strategy", string(strategy)).Str("regime", string(state.Regime)).
			Msg("allocation skipped, regime blocked")
		return plan
	}
	if totalCapital <= 0 {
		plan.Reason = "no capital available"
		return plan
	}

	effective := totalCapital * state.SizeMultiplier
	plan.TotalCapital = effective

	switch a.params.Policy {
	case PolicyTiered:
		a.allocateTiered(plan, candidates, effective)
	default:
		a.allocateEqualSplit(plan, candidates, effective)
	}

	a.redistributeUnused(plan, effective)
	a.finalize(plan)

	if plan.TotalPositions == 0 && plan.Reason == "" {
		plan.Reason = "no qualified candidates"
	}
	log.Info().Str("strategy", string(strategy)).Str("policy", string(a.params.Policy)).
		Int("positions", plan.TotalPositions).Float64("deployed", plan.TotalDeployed).
		Float64("effective_capital", effective).Msg("allocation plan built")
	return plan
}

// qualify filters candidates by the score/RS floors and the historical exit
// veto, then sorts by score descending (stable: input order breaks ties).
func (a *Allocator) qualify(candidates []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < a.params.MinScore || c.RSRating < a.params.MinRSRating {
			continue
		}
		if a.vetoed(c.Ticker) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// vetoed reports whether the historical exit filter blocks the ticker.
// Lookup failures fail open with a warning: a broken history query should
// not halt the run.
func (a *Allocator) vetoed(ticker string) bool {
	if a.exits == nil {
		return false
	}
	rec, err := a.exits.Veto(ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("exit history lookup failed, proceeding without veto")
		return false
	}
	if rec == nil {
		return false
	}
	log.Info().Str("ticker", ticker).Int("days_ago", rec.DaysAgo).Float64("loss", rec.Loss).
		Msg("recent losing exit, skipping re-entry")
	return true
}

// budget returns the category's share of the effective capital.
func (a *Allocator) budget(cat model.Category, effective float64) float64 {
	return effective * a.params.Targets[cat]
}

// redistributeUnused spreads capital left over from empty categories or size
// clamping across categories that do have positions, proportionally by their
// original target fraction. Single pass: sizes grow once and may hit their
// cap again, leaving a remainder unspent. Not iterated to a fixed point.
func (a *Allocator) redistributeUnused(plan *model.AllocationPlan, effective float64) {
	deployed := 0.0
	for _, cat := range model.CategoryOrder {
		deployed += plan.Categories[cat].Capital
	}
	unused := effective - deployed
	if unused <= 0.01 {
		return
	}

	weightSum := 0.0
	for _, cat := range model.CategoryOrder {
		if len(plan.Categories[cat].Selected) > 0 {
			weightSum += a.params.Targets[cat]
		}
	}
	if weightSum <= 0 {
		return
	}

	for _, cat := range model.CategoryOrder {
		alloc := plan.Categories[cat]
		if len(alloc.Selected) == 0 {
			continue
		}
		share := unused * a.params.Targets[cat] / weightSum
		grown := a.growCategory(alloc, share)
		log.Debug().Str("category", string(cat)).Float64("share", share).Float64("grown", grown).
			Msg("redistributed unused capital")
	}
}

// growCategory bumps position sizes by up to extra capital, never past the
// applicable maximum (policy max for equal-split, tier band max for tiered).
// Returns the capital actually absorbed.
func (a *Allocator) growCategory(alloc *model.CategoryAllocation, extra float64) float64 {
	if extra <= 0 || alloc.Capital <= 0 {
		return 0
	}
	factor := (alloc.Capital + extra) / alloc.Capital
	total := 0.0
	for i := range alloc.Selected {
		sel := &alloc.Selected[i]
		grown := sel.PositionSize * factor
		if limit := a.sizeCap(sel.Tier); grown > limit {
			grown = limit
		}
		sel.PositionSize = grown
		total += grown
	}
	absorbed := total - alloc.Capital
	alloc.Capital = total
	if alloc.Positions > 0 {
		alloc.CapitalPerPosition = total / float64(alloc.Positions)
	}
	return absorbed
}

// sizeCap returns the maximum size for a position given its tier under the
// active policy.
func (a *Allocator) sizeCap(tier model.Tier) float64 {
	if a.params.Policy == PolicyTiered {
		if band, ok := tierBands[tier]; ok {
			return band.Max
		}
	}
	return a.params.MaxPositionSize
}

func (a *Allocator) finalize(plan *model.AllocationPlan) {
	totalPos := 0
	totalCap := 0.0
	for _, cat := range model.CategoryOrder {
		alloc := plan.Categories[cat]
		alloc.Positions = len(alloc.Selected)
		totalPos += alloc.Positions
		totalCap += alloc.Capital
	}
	plan.TotalPositions = totalPos
	plan.TotalDeployed = totalCap
}
