package collector

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"StockPilot/internal/calculator"
	"StockPilot/internal/model"
)

// Internal symbols for the indices the regime snapshot needs. Fetchers map
// these to their own tickers.
const (
	SymbolSP500    = "SP500"
	SymbolVIX      = "VIX"
	SymbolIndiaVIX = "INDIAVIX"
	SymbolNifty    = "NIFTY50"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars   map[string][]model.OHLCV
	Prices map[string]float64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(symbol string, days int) ([]model.OHLCV, error) {
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no bars for %s", symbol)
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (m *MockFetcher) FetchCurrentPrice(symbol string) (float64, error) {
	p, ok := m.Prices[symbol]
	if !ok {
		return 0, fmt.Errorf("mock: no price for %s", symbol)
	}
	return p, nil
}

// MockBars builds a flat close series ending today, oldest first.
func MockBars(closes ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:  time.Now().AddDate(0, 0, -(len(closes) - i)),
			Open:  c, High: c, Low: c, Close: c,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector builds the market snapshot the regime classifier scores.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Snapshot fetches the index series and assembles a MarketSnapshot.
// Any required series shorter than two observations is an error; callers
// must treat that as "regime unavailable" and skip allocation, not guess.
func (c *Collector) Snapshot() (*model.MarketSnapshot, error) {
	sp, err := c.fetchCloses(SymbolSP500, 40)
	if err != nil {
		return nil, err
	}
	vix, err := c.fetchCloses(SymbolVIX, 5)
	if err != nil {
		return nil, err
	}
	indiaVix, err := c.fetchCloses(SymbolIndiaVIX, 5)
	if err != nil {
		return nil, err
	}
	nifty, err := c.fetchCloses(SymbolNifty, 80)
	if err != nil {
		return nil, err
	}

	snap := &model.MarketSnapshot{
		SP500Close:     sp[len(sp)-1],
		SP500PrevClose: sp[len(sp)-2],
		SP500SMA20:     smaOrMean(SymbolSP500, sp, 20),
		VIX:            vix[len(vix)-1],
		IndiaVIX:       indiaVix[len(indiaVix)-1],
		NiftyClose:     nifty[len(nifty)-1],
		NiftyPrevClose: nifty[len(nifty)-2],
		NiftySMA50:     smaOrMean(SymbolNifty, nifty, 50),
	}
	return snap, nil
}

func (c *Collector) fetchCloses(symbol string, days int) ([]float64, error) {
	bars, err := c.Fetcher.FetchDailyBars(symbol, days)
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars: %w", symbol, err)
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("%s series too short: %d observations", symbol, len(bars))
	}
	return calculator.ExtractCloses(bars), nil
}

// smaOrMean returns the period SMA, falling back to the full-series mean when
// the series is shorter than the period.
func smaOrMean(symbol string, closes []float64, period int) float64 {
	if ma, err := calculator.CalculateSMA(closes, period); err == nil {
		return ma
	}
	log.Warn().Str("symbol", symbol).Int("period", period).Int("observations", len(closes)).
		Msg("series shorter than SMA period, using series mean")
	sum := 0.0
	for _, c := range closes {
		sum += c
	}
	return sum / float64(len(closes))
}
