package model

import "time"

// Regime is a discrete market-condition label gating new capital deployment.
type Regime string

const (
	RegimeBull    Regime = "BULL"
	RegimeNeutral Regime = "NEUTRAL"
	RegimeCaution Regime = "CAUTION"
	RegimeBear    Regime = "BEAR"
)

// RegimeState is the output of the market regime classifier, computed fresh
// per evaluation date. A zero multiplier or AllowNewEntries=false forces zero
// allocation for the run.
type RegimeState struct {
	Regime          Regime
	Score           float64
	SizeMultiplier  float64
	AllowNewEntries bool
	Signals         []string
	AsOf            time.Time
}

// MarketSnapshot holds the index readings the regime classifier scores.
// Built by the collector from the primary (S&P 500), volatility (VIX,
// India VIX) and local benchmark (Nifty 50) series.
type MarketSnapshot struct {
	SP500Close     float64
	SP500PrevClose float64
	SP500SMA20     float64
	VIX            float64
	IndiaVIX       float64
	NiftyClose     float64
	NiftyPrevClose float64
	NiftySMA50     float64
}

// SP500ChangePct returns the primary index overnight change in percent.
func (s *MarketSnapshot) SP500ChangePct() float64 {
	if s.SP500PrevClose == 0 {
		return 0
	}
	return (s.SP500Close - s.SP500PrevClose) / s.SP500PrevClose * 100
}

// NiftyChangePct returns the local benchmark daily change in percent.
func (s *MarketSnapshot) NiftyChangePct() float64 {
	if s.NiftyPrevClose == 0 {
		return 0
	}
	return (s.NiftyClose - s.NiftyPrevClose) / s.NiftyPrevClose * 100
}
