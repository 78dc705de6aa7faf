package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"StockPilot/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPositionLifecycle(t *testing.T) {
	s := newTestStore(t)

	p := &model.Position{
		Ticker:     "RELIANCE.NS",
		Strategy:   model.StrategyDaily,
		EntryPrice: 2500,
		Quantity:   12,
		StopLoss:   2450,
		TakeProfit: 2600,
		Category:   model.CategoryLarge,
		Tier:       model.TierA,
		EntryDate:  time.Now(),
		Status:     model.StatusActive,
	}
	if err := s.SavePosition(p); err != nil {
		t.Fatalf("save position: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected generated position ID")
	}

	active, err := s.ActivePositions(model.StrategyDaily)
	if err != nil {
		t.Fatalf("active positions: %v", err)
	}
	if len(active) != 1 || active[0].Ticker != "RELIANCE.NS" {
		t.Fatalf("unexpected active positions: %+v", active)
	}

	deployed, err := s.DeployedCapital(model.StrategyDaily)
	if err != nil {
		t.Fatalf("deployed capital: %v", err)
	}
	if deployed != 30000 {
		t.Errorf("expected deployed 30000, got %.2f", deployed)
	}

	if err := s.ClosePosition(p.ID, 2450, -600, time.Now()); err != nil {
		t.Fatalf("close position: %v", err)
	}
	if err := s.ClosePosition(p.ID, 2450, -600, time.Now()); err == nil {
		t.Error("expected error closing an already closed position")
	}

	deployed, err = s.DeployedCapital(model.StrategyDaily)
	if err != nil {
		t.Fatalf("deployed capital: %v", err)
	}
	if deployed != 0 {
		t.Errorf("expected no deployed capital after close, got %.2f", deployed)
	}
}

func TestRecentLosingExit(t *testing.T) {
	s := newTestStore(t)

	add := func(ticker string, pnl float64, exitedDaysAgo int) {
		t.Helper()
		p := &model.Position{
			Ticker:     ticker,
			Strategy:   model.StrategyDaily,
			EntryPrice: 100,
			Quantity:   10,
			EntryDate:  time.Now().AddDate(0, 0, -exitedDaysAgo-2),
			Status:     model.StatusActive,
		}
		if err := s.SavePosition(p); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := s.ClosePosition(p.ID, 100+pnl/10, pnl, time.Now().AddDate(0, 0, -exitedDaysAgo)); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	add("LOSER.NS", -800, 3)
	add("WINNER.NS", 1200, 2)
	add("OLDLOSS.NS", -500, 30)

	rec, err := s.RecentLosingExit("LOSER.NS", 7)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rec == nil || rec.Loss != -800 {
		t.Fatalf("expected losing exit record, got %+v", rec)
	}

	for _, ticker := range []string{"WINNER.NS", "OLDLOSS.NS", "NEVER.NS"} {
		rec, err := s.RecentLosingExit(ticker, 7)
		if err != nil {
			t.Fatalf("lookup %s: %v", ticker, err)
		}
		if rec != nil {
			t.Errorf("%s: expected no veto record, got %+v", ticker, rec)
		}
	}
}

func TestEnsureAccountKeepsExistingCash(t *testing.T) {
	s := newTestStore(t)

	acc, err := s.EnsureAccount(model.StrategySwing, 500000)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if acc.AvailableCash != 500000 {
		t.Fatalf("expected 500000 cash, got %.2f", acc.AvailableCash)
	}

	acc.AvailableCash = 420000
	acc.ProfitsLocked = 15000
	if err := s.SaveAccount(acc); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A restart must not reset the balance to the configured initial.
	again, err := s.EnsureAccount(model.StrategySwing, 500000)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.AvailableCash != 420000 || again.ProfitsLocked != 15000 {
		t.Errorf("expected persisted balances, got %+v", again)
	}
}

func TestEnsureAccountPropagatesReadErrors(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Account(model.StrategyDaily); !errors.Is(err, ErrNoAccount) {
		t.Fatalf("expected ErrNoAccount for a fresh store, got %v", err)
	}
	if _, err := s.EnsureAccount(model.StrategyDaily, 500000); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	// A failed read is not a missing account: ensure must surface the error
	// instead of re-seeding the ledger with the initial capital.
	s.Close()
	if _, err := s.EnsureAccount(model.StrategyDaily, 500000); err == nil {
		t.Fatal("expected an error from a closed store")
	} else if errors.Is(err, ErrNoAccount) {
		t.Fatalf("read failure misclassified as missing account: %v", err)
	}
}

func TestCandidatesRoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := []model.Candidate{
		{Ticker: "INFY.NS", Category: model.CategoryLarge, Score: 72, RSRating: 85,
			Price: 1520, ATRPct: 1.8, IndicatorsFired: []string{"ema_cross", "volume_surge"}},
		{Ticker: "ZOMATO.NS", Category: model.CategoryMid, Score: 66, RSRating: 71},
	}
	if err := s.SaveCandidates("2026-08-25", in); err != nil {
		t.Fatalf("save candidates: %v", err)
	}
	// A rerun replaces, not appends.
	if err := s.SaveCandidates("2026-08-25", in); err != nil {
		t.Fatalf("resave candidates: %v", err)
	}

	out, err := s.Candidates("2026-08-25")
	if err != nil {
		t.Fatalf("load candidates: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out))
	}
	if out[0].Ticker != "INFY.NS" || len(out[0].IndicatorsFired) != 2 {
		t.Errorf("unexpected first candidate: %+v", out[0])
	}

	empty, err := s.Candidates("2026-08-24")
	if err != nil {
		t.Fatalf("load empty day: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no candidates for other day, got %d", len(empty))
	}
}

func TestRegimeHistory(t *testing.T) {
	s := newTestStore(t)

	if state, err := s.LatestRegime(); err != nil || state != nil {
		t.Fatalf("expected empty history, got %+v err %v", state, err)
	}

	first := &model.RegimeState{
		Regime: model.RegimeCaution, Score: -1.5, SizeMultiplier: 0.5,
		AllowNewEntries: true, Signals: []string{"vix elevated"},
		AsOf: time.Now().AddDate(0, 0, -1),
	}
	second := &model.RegimeState{
		Regime: model.RegimeBull, Score: 5, SizeMultiplier: 1.0,
		AllowNewEntries: true, AsOf: time.Now(),
	}
	if err := s.SaveRegime(first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := s.SaveRegime(second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := s.LatestRegime()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got == nil || got.Regime != model.RegimeBull || got.SizeMultiplier != 1.0 {
		t.Errorf("expected newest regime, got %+v", got)
	}
}
