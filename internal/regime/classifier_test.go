package regime

import (
	"errors"
	"testing"

	"StockPilot/internal/model"
)

func calmSnapshot() *model.MarketSnapshot {
	return &model.MarketSnapshot{
		SP500Close:     6000,
		SP500PrevClose: 5920, // +1.35%
		SP500SMA20:     5900,
		VIX:            13,
		IndiaVIX:       11,
		NiftyClose:     24500,
		NiftyPrevClose: 24400,
		NiftySMA50:     24000,
	}
}

func TestClassify_Bull(t *testing.T) {
	state, err := Classify(calmSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// +2 (change) +1 (trend) +2 (VIX) +1 (India VIX) +1 (Nifty) = 7
	if state.Score != 7 {
		t.Errorf("expected score 7, got %.1f", state.Score)
	}
	if state.Regime != model.RegimeBull {
		t.Errorf("expected BULL, got %s", state.Regime)
	}
	if state.SizeMultiplier != 1.0 || !state.AllowNewEntries {
		t.Errorf("BULL should allow full sizing, got mult=%.2f allow=%v", state.SizeMultiplier, state.AllowNewEntries)
	}
	if len(state.Signals) != 5 {
		t.Errorf("expected 5 signals, got %d", len(state.Signals))
	}
}

func TestClassify_BearBlocksEntries(t *testing.T) {
	snap := &model.MarketSnapshot{
		SP500Close:     5500,
		SP500PrevClose: 5650, // -2.65%
		SP500SMA20:     5700,
		VIX:            34,
		IndiaVIX:       22,
		NiftyClose:     23000,
		NiftyPrevClose: 23400,
		NiftySMA50:     24000,
	}
	state, err := Classify(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// -2 -1 -3 -2 -1 = -9
	if state.Score != -9 {
		t.Errorf("expected score -9, got %.1f", state.Score)
	}
	if state.Regime != model.RegimeBear {
		t.Errorf("expected BEAR, got %s", state.Regime)
	}
	if state.AllowNewEntries {
		t.Error("BEAR must block new entries")
	}
	if state.SizeMultiplier != 0 {
		t.Errorf("BEAR multiplier must be 0, got %.2f", state.SizeMultiplier)
	}
}

func TestClassify_CutPoints(t *testing.T) {
	tests := []struct {
		name   string
		adjust func(*model.MarketSnapshot)
		regime model.Regime
		mult   float64
	}{
		{
			// +1 (small positive change) +1 +1 (VIX 18) +0.5 (India VIX 13) -1 = 2.5
			name: "neutral",
			adjust: func(s *model.MarketSnapshot) {
				s.SP500PrevClose = s.SP500Close - 1
				s.VIX = 18
				s.IndiaVIX = 13
				s.NiftySMA50 = s.NiftyClose + 100
			},
			regime: model.RegimeNeutral,
			mult:   0.75,
		},
		{
			// -1 (small negative change) -1 (below 20-SMA) -1 (VIX 25)
			// +0.5 (India VIX 13) +1 (Nifty above 50-SMA) = -1.5
			name: "caution",
			adjust: func(s *model.MarketSnapshot) {
				s.SP500PrevClose = s.SP500Close + 1
				s.SP500SMA20 = s.SP500Close + 50
				s.VIX = 25
				s.IndiaVIX = 13
			},
			regime: model.RegimeCaution,
			mult:   0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := calmSnapshot()
			tt.adjust(snap)
			state, err := Classify(snap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if state.Regime != tt.regime {
				t.Errorf("expected %s, got %s (score %.1f)", tt.regime, state.Regime, state.Score)
			}
			if state.SizeMultiplier != tt.mult {
				t.Errorf("expected multiplier %.2f, got %.2f", tt.mult, state.SizeMultiplier)
			}
		})
	}
}

func TestClassify_Unavailable(t *testing.T) {
	snaps := []*model.MarketSnapshot{
		nil,
		{},
		{SP500Close: 6000, SP500PrevClose: 5900}, // missing volatility and Nifty
	}
	for _, snap := range snaps {
		if _, err := Classify(snap); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable for incomplete snapshot, got %v", err)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	a, err := Classify(calmSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Classify(calmSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Regime != b.Regime || a.Score != b.Score || a.SizeMultiplier != b.SizeMultiplier {
		t.Error("classification must be deterministic for identical snapshots")
	}
}
