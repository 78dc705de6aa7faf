package regime

import (
	"errors"
	"fmt"
	"time"

	"StockPilot/internal/model"
)

// ErrUnavailable is returned when a required index series is missing or too
// short. Callers must skip allocation for the run instead of guessing a
// regime.
var ErrUnavailable = errors.New("market regime unavailable")

// Classify scores the snapshot's macro indicators into a discrete regime
// with a position-size multiplier and an entry-allow flag.
//
// Point bands: S&P daily change ±2, S&P trend ±1, VIX −3..+2,
// India VIX −2..+1, Nifty trend ±1.
func Classify(snap *model.MarketSnapshot) (*model.RegimeState, error) {
	if snap == nil ||
		snap.SP500Close == 0 || snap.SP500PrevClose == 0 ||
		snap.VIX == 0 || snap.IndiaVIX == 0 ||
		snap.NiftyClose == 0 {
		return nil, ErrUnavailable
	}

	score := 0.0
	var signals []string

	// Overnight US market move.
	change := snap.SP500ChangePct()
	switch {
	case change > 1:
		score += 2
		signals = append(signals, "✅ S&P 500 strong (+)")
	case change > 0:
		score += 1
		signals = append(signals, "🟢 S&P 500 positive")
	case change > -1:
		score -= 1
		signals = append(signals, "🟡 S&P 500 slightly negative")
	default:
		score -= 2
		signals = append(signals, "🔴 S&P 500 weak (-)")
	}

	// US trend vs 20-day SMA.
	if snap.SP500Close > snap.SP500SMA20 {
		score += 1
		signals = append(signals, "✅ S&P 500 above 20-SMA")
	} else {
		score -= 1
		signals = append(signals, "⚠️ S&P 500 below 20-SMA")
	}

	// VIX level.
	switch {
	case snap.VIX < 15:
		score += 2
		signals = append(signals, "✅ VIX low (calm market)")
	case snap.VIX < 20:
		score += 1
		signals = append(signals, "🟢 VIX normal")
	case snap.VIX < 30:
		score -= 1
		signals = append(signals, "⚠️ VIX elevated (caution)")
	default:
		score -= 3
		signals = append(signals, "🔴 VIX high (fear)")
	}

	// India VIX level.
	switch {
	case snap.IndiaVIX < 12:
		score += 1
		signals = append(signals, "✅ India VIX low")
	case snap.IndiaVIX < 15:
		score += 0.5
		signals = append(signals, "🟢 India VIX normal")
	case snap.IndiaVIX < 20:
		score -= 1
		signals = append(signals, "⚠️ India VIX elevated")
	default:
		score -= 2
		signals = append(signals, "🔴 India VIX high")
	}

	// Nifty trend vs 50-day SMA.
	if snap.NiftyClose > snap.NiftySMA50 {
		score += 1
		signals = append(signals, "✅ Nifty above 50-SMA")
	} else {
		score -= 1
		signals = append(signals, "⚠️ Nifty below 50-SMA")
	}

	state := &model.RegimeState{
		Score:   score,
		Signals: signals,
		AsOf:    time.Now(),
	}

	switch {
	case score >= 4:
		state.Regime = model.RegimeBull
		state.SizeMultiplier = 1.0
		state.AllowNewEntries = true
	case score >= 1:
		state.Regime = model.RegimeNeutral
		state.SizeMultiplier = 0.75
		state.AllowNewEntries = true
	case score >= -2:
		state.Regime = model.RegimeCaution
		state.SizeMultiplier = 0.5
		state.AllowNewEntries = true
	default:
		state.Regime = model.RegimeBear
		state.SizeMultiplier = 0
		state.AllowNewEntries = false
	}

	return state, nil
}

// Guidance returns the one-line trading guidance for a regime, used in
// reports.
func Guidance(r model.Regime) string {
	switch r {
	case model.RegimeBull:
		return "✅ Normal trading - full position sizing"
	case model.RegimeNeutral:
		return "🟡 Cautious trading - 75% position sizing"
	case model.RegimeCaution:
		return "⚠️ Defensive mode - 50% position sizing"
	case model.RegimeBear:
		return "🛑 Risk-off mode - NO NEW ENTRIES"
	default:
		return fmt.Sprintf("unknown regime %q", r)
	}
}
