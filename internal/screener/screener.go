// Package screener loads the day's candidate universe. Screening itself
// happens upstream; results land in the screened_stocks table and are read
// back here, grouped by category for the allocator.
package screener

import (
	"time"

	"github.com/rs/zerolog/log"

	"StockPilot/internal/model"
)

// Source yields the screened candidates for a date key (yyyy-mm-dd).
type Source interface {
	Candidates(date string) ([]model.Candidate, error)
}

// Screener wraps a Source and shapes its output for allocation.
type Screener struct {
	source Source
}

func New(source Source) *Screener {
	return &Screener{source: source}
}

// DateKey formats a time as the screen-date key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Universe returns today's candidates grouped by category. Candidates with an
// unknown category are dropped with a warning rather than silently misfiled.
func (s *Screener) Universe(now time.Time) (map[model.Category][]model.Candidate, error) {
	candidates, err := s.source.Candidates(DateKey(now))
	if err != nil {
		return nil, err
	}

	known := map[model.Category]bool{}
	for _, cat := range model.CategoryOrder {
		known[cat] = true
	}

	out := make(map[model.Category][]model.Candidate, len(model.CategoryOrder))
	for _, c := range candidates {
		if !known[c.Category] {
			log.Warn().Str("ticker", c.Ticker).Str("category", string(c.Category)).
				Msg("candidate with unknown category dropped")
			continue
		}
		out[c.Category] = append(out[c.Category], c)
	}
	return out, nil
}
