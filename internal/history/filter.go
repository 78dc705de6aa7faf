// Package history vetoes re-entry into tickers that recently stopped out,
// acting as a per-ticker cooling-off period after a loss.
package history

import "time"

// ExitRecord describes the most recent losing exit for a ticker.
type ExitRecord struct {
	Ticker   string
	ExitDate time.Time
	DaysAgo  int
	Loss     float64 // realized P&L, negative
}

// Source looks up the most recent losing exit for a ticker within a lookback
// window. Implemented by the store; nil result means no losing exit found.
type Source interface {
	RecentLosingExit(ticker string, lookbackDays int) (*ExitRecord, error)
}

// DefaultLookbackDays is the default veto window.
const DefaultLookbackDays = 7

// Filter wraps a Source with a configured lookback window.
type Filter struct {
	src      Source
	lookback int
}

// NewFilter creates a Filter. A non-positive lookback falls back to the
// default window.
func NewFilter(src Source, lookbackDays int) *Filter {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Filter{src: src, lookback: lookbackDays}
}

// Veto returns the exit record when the ticker must be skipped this run, or
// nil when the candidate proceeds normally.
func (f *Filter) Veto(ticker string) (*ExitRecord, error) {
	return f.src.RecentLosingExit(ticker, f.lookback)
}

// None is a Source with no exit history, for dry runs and tests.
type None struct{}

func (None) RecentLosingExit(string, int) (*ExitRecord, error) { return nil, nil }
