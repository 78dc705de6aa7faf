package notifier

import (
	"strings"
	"testing"
	"time"

	"StockPilot/internal/model"
)

func TestFormatRegimeReport(t *testing.T) {
	state := &model.RegimeState{
		Regime:          model.RegimeBear,
		Score:           -6,
		SizeMultiplier:  0,
		AllowNewEntries: false,
		Signals:         []string{"🔴 S&P 500 down 2.1%"},
		AsOf:            time.Date(2026, 8, 25, 8, 30, 0, 0, time.UTC),
	}
	msg := FormatRegimeReport(state, "Stay out.")

	for _, want := range []string{"BEAR", "2026-08-25", "S&P 500 down", "blocked", "Stay out."} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatAllocationPlan(t *testing.T) {
	plan := &model.AllocationPlan{
		Strategy:     model.StrategyDaily,
		Regime:       model.RegimeBull,
		Multiplier:   1.0,
		TotalCapital: 500000,
		Categories: map[model.Category]*model.CategoryAllocation{
			model.CategoryLarge: {
				Positions: 1,
				Capital:   37500,
				Selected: []model.SelectedPosition{{
					Candidate:    model.Candidate{Ticker: "INFY.NS", Category: model.CategoryLarge},
					Tier:         model.TierA,
					PositionSize: 37500,
				}},
			},
			model.CategoryMid:   {},
			model.CategoryMicro: {},
		},
		TotalPositions: 1,
		TotalDeployed:  37500,
	}
	msg := FormatAllocationPlan(plan)

	for _, want := range []string{"DAILY", "LARGE", "INFY.NS", "₹37,500", "1 positions"} {
		if !strings.Contains(msg, want) {
			t.Errorf("plan message missing %q:\n%s", want, msg)
		}
	}

	blocked := &model.AllocationPlan{
		Strategy:   model.StrategyDaily,
		Regime:     model.RegimeBear,
		Categories: map[model.Category]*model.CategoryAllocation{},
		Reason:     "regime blocked: BEAR regime forbids new entries",
	}
	msg = FormatAllocationPlan(blocked)
	if !strings.Contains(msg, "No positions planned") || !strings.Contains(msg, "regime blocked") {
		t.Errorf("blocked plan message wrong:\n%s", msg)
	}
}

func TestFormatEODSummary(t *testing.T) {
	trades := []model.Trade{
		{Ticker: "INFY.NS", Signal: "BUY", Price: 1500, Quantity: 20},
		{Ticker: "TATAMOTORS.NS", Signal: "SELL", Price: 940, Quantity: 10, PnL: -600, Notes: "STOP_LOSS"},
	}
	accounts := []*model.CapitalAccount{
		{Strategy: model.StrategyDaily, AvailableCash: 469400, TotalLosses: 600},
	}
	msg := FormatEODSummary(trades, accounts, map[model.Strategy]int{model.StrategyDaily: 1})

	for _, want := range []string{"1 entries, 1 exits", "TATAMOTORS.NS", "STOP_LOSS", "DAILY", "1 open"} {
		if !strings.Contains(msg, want) {
			t.Errorf("summary missing %q:\n%s", want, msg)
		}
	}
}
