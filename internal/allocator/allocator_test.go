package allocator

import (
	"math"
	"reflect"
	"testing"

	"StockPilot/internal/history"
	"StockPilot/internal/model"
)

func bullState() *model.RegimeState {
	return &model.RegimeState{
		Regime:          model.RegimeBull,
		SizeMultiplier:  1.0,
		AllowNewEntries: true,
	}
}

func bearState() *model.RegimeState {
	return &model.RegimeState{
		Regime:          model.RegimeBear,
		SizeMultiplier:  0,
		AllowNewEntries: false,
	}
}

func cand(ticker string, score, rs float64) model.Candidate {
	return model.Candidate{Ticker: ticker, Score: score, RSRating: rs}
}

func cands(category model.Category, n int, score, rs float64) []model.Candidate {
	out := make([]model.Candidate, n)
	for i := range out {
		out[i] = model.Candidate{
			Ticker:   string(rune('A'+i)) + string(category) + ".NS",
			Category: category,
			Score:    score,
			RSRating: rs,
		}
	}
	return out
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("%s: got %.2f, want %.2f", name, got, want)
	}
}

// vetoList blocks a fixed set of tickers.
type vetoList map[string]bool

func (v vetoList) Veto(ticker string) (*history.ExitRecord, error) {
	if v[ticker] {
		return &history.ExitRecord{Ticker: ticker, DaysAgo: 3, Loss: -2000}, nil
	}
	return nil, nil
}

func TestAllocate_EqualSplit(t *testing.T) {
	a := New(DefaultParams(), nil)
	candidates := map[model.Category][]model.Candidate{
		model.CategoryLarge: cands(model.CategoryLarge, 8, 72, 80),
		model.CategoryMid:   cands(model.CategoryMid, 4, 68, 75),
		model.CategoryMicro: cands(model.CategoryMicro, 3, 65, 70),
	}

	plan := a.Allocate(model.StrategyDaily, candidates, 500000, bullState())

	if plan.TotalPositions != 15 {
		t.Fatalf("expected 15 positions, got %d", plan.TotalPositions)
	}
	approx(t, "large capital", plan.Category(model.CategoryLarge).Capital, 300000)
	approx(t, "mid capital", plan.Category(model.CategoryMid).Capital, 100000)
	approx(t, "micro capital", plan.Category(model.CategoryMicro).Capital, 100000)
	approx(t, "large size", plan.Category(model.CategoryLarge).CapitalPerPosition, 37500)
	approx(t, "mid size", plan.Category(model.CategoryMid).CapitalPerPosition, 25000)
	approx(t, "deployed", plan.TotalDeployed, 500000)
}

func TestAllocate_EqualSplitRedistributesEmptyCategory(t *testing.T) {
	a := New(DefaultParams(), nil)
	candidates := map[model.Category][]model.Candidate{
		model.CategoryLarge: cands(model.CategoryLarge, 8, 72, 80),
		model.CategoryMid:   cands(model.CategoryMid, 4, 68, 75),
	}

	plan := a.Allocate(model.StrategyDaily, candidates, 500000, bullState())

	// Micro's ₹100k moves to large and mid in a 60:20 ratio.
	if plan.TotalPositions != 12 {
		t.Fatalf("expected 12 positions, got %d", plan.TotalPositions)
	}
	approx(t, "large capital", plan.Category(model.CategoryLarge).Capital, 375000)
	approx(t, "mid capital", plan.Category(model.CategoryMid).Capital, 125000)
	approx(t, "large size", plan.Category(model.CategoryLarge).CapitalPerPosition, 46875)
	approx(t, "mid size", plan.Category(model.CategoryMid).CapitalPerPosition, 31250)
	approx(t, "deployed", plan.TotalDeployed, 500000)
}

func TestAllocate_EqualSplitTruncatesToMinimumSize(t *testing.T) {
	a := New(DefaultParams(), nil)
	candidates := map[model.Category][]model.Candidate{
		model.CategoryLarge: cands(model.CategoryLarge, 20, 70, 80),
	}

	plan := a.Allocate(model.StrategyDaily, candidates, 500000, bullState())

	// 300k budget at a 20k minimum holds at most 15 positions; with mid and
	// micro empty their 200k then spreads across the survivors.
	if got := plan.Category(model.CategoryLarge).Positions; got != 15 {
		t.Fatalf("expected 15 large positions, got %d", got)
	}
	approx(t, "large size", plan.Category(model.CategoryLarge).CapitalPerPosition, 500000.0/15)
	approx(t, "deployed", plan.TotalDeployed, 500000)
}

func TestAllocate_EqualSplitCapsPositionSize(t *testing.T) {
	a := New(DefaultParams(), nil)
	candidates := map[model.Category][]model.Candidate{
		model.CategoryLarge: cands(model.CategoryLarge, 2, 70, 80),
	}

	plan := a.Allocate(model.StrategyDaily, candidates, 500000, bullState())

	alloc := plan.Category(model.CategoryLarge)
	if alloc.Positions != 2 {
		t.Fatalf("expected 2 positions, got %d", alloc.Positions)
	}
	for _, sel := range alloc.Selected {
		approx(t, "capped size", sel.PositionSize, 100000)
	}
	// The clamped remainder stays unspent even after redistribution.
	approx(t, "deployed", plan.TotalDeployed, 200000)
}

func TestAllocate_EqualSplitFiltersUnqualified(t *testing.T) {
	a := New(DefaultParams(), nil)
	candidates := map[model.Category][]model.Candidate{
		model.CategoryLarge: {
			cand("GOOD.NS", 72, 80),
			cand("LOWSCORE.NS", 55, 80),
			cand("LOWRS.NS", 72, 40),
		},
	}

	plan := a.Allocate(model.StrategyDaily, candidates, 500000, bullState())

	alloc := plan.Category(model.CategoryLarge)
	if alloc.Positions != 1 || alloc.Selected[0].Ticker != "GOOD.NS" {
		t.Fatalf("expected only GOOD.NS selected, got %+v", alloc.Selected)
	}
}

func TestAllocate_EqualSplitVeto(t *testing.T) {
	a := New(DefaultParams(), vetoList{"BURNED.NS": true})
	candidates := map[model.Category][]model.Candidate{
		model.CategoryLarge: {
			cand("BURNED.NS", 90, 95),
			cand("FRESH.NS", 70, 80),
		},
	}

	plan := a.Allocate(model.StrategyDaily, candidates, 500000, bullState())

	alloc := plan.Category(model.CategoryLarge)
	if alloc.Positions != 1 || alloc.Selected[0].Ticker != "FRESH.NS" {
		t.Fatalf("expected veto to drop BURNED.NS, got %+v", alloc.Selected)
	}
}

func TestAllocate_BearRegimeBlocksEntries(t *testing.T) {
	a := New(DefaultParams(), nil)
	candidates := map[model.Category][]model.Candidate{
		model.CategoryLarge: cands(model.CategoryLarge, 5, 90, 95),
	}

	plan := a.Allocate(model.StrategyDaily, candidates, 500000, bearState())

	if plan.TotalPositions != 0 {
		t.Fatalf("expected no positions in bear regime, got %d", plan.TotalPositions)
	}
	if plan.Reason == "" {
		t.Error("expected a reason on the blocked plan")
	}
}

func TestAllocate_RegimeMultiplierScalesCapital(t *testing.T) {
	a := New(DefaultParams(), nil)
	state := &model.RegimeState{
		Regime:          model.RegimeCaution,
		SizeMultiplier:  0.5,
		AllowNewEntries: true,
	}
	candidates := map[model.Category][]model.Candidate{
		model.CategoryLarge: cands(model.CategoryLarge, 4, 72, 80),
		model.CategoryMid:   cands(model.CategoryMid, 2, 68, 75),
		model.CategoryMicro: cands(model.CategoryMicro, 2, 65, 70),
	}

	plan := a.Allocate(model.StrategyDaily, candidates, 500000, state)

	approx(t, "effective capital", plan.TotalCapital, 250000)
	approx(t, "deployed", plan.TotalDeployed, 250000)
}

func TestAllocate_Deterministic(t *testing.T) {
	candidates := map[model.Category][]model.Candidate{
		model.CategoryLarge: {
			cand("AAA.NS", 72, 80),
			cand("BBB.NS", 72, 80),
			cand("CCC.NS", 85, 90),
		},
		model.CategoryMid: cands(model.CategoryMid, 3, 68, 75),
	}

	a := New(DefaultParams(), nil)
	first := a.Allocate(model.StrategyDaily, candidates, 500000, bullState())
	second := a.Allocate(model.StrategyDaily, candidates, 500000, bullState())

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different plans")
	}
	// Highest score first, then input order on ties.
	sel := first.Category(model.CategoryLarge).Selected
	if sel[0].Ticker != "CCC.NS" || sel[1].Ticker != "AAA.NS" || sel[2].Ticker != "BBB.NS" {
		t.Errorf("unexpected ordering: %+v", sel)
	}
}

func TestAllocate_SizeBoundsHold(t *testing.T) {
	params := DefaultParams()
	for _, policy := range []Policy{PolicyEqualSplit, PolicyTiered} {
		params.Policy = policy
		a := New(params, nil)
		candidates := map[model.Category][]model.Candidate{
			model.CategoryLarge: cands(model.CategoryLarge, 6, 75, 92),
			model.CategoryMid:   cands(model.CategoryMid, 4, 66, 75),
			model.CategoryMicro: cands(model.CategoryMicro, 3, 62, 68),
		}
		plan := a.Allocate(model.StrategySwing, candidates, 800000, bullState())

		for _, cat := range model.CategoryOrder {
			for _, sel := range plan.Category(cat).Selected {
				max := params.MaxPositionSize
				if policy == PolicyTiered {
					max = tierBands[sel.Tier].Max
				}
				if sel.PositionSize > max+0.01 {
					t.Errorf("%s/%s: size %.2f exceeds max %.2f", policy, sel.Ticker, sel.PositionSize, max)
				}
			}
		}
	}
}
