package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StockPilot/internal/model"
)

// RecordTrade appends one row to the trade log.
func (s *Store) RecordTrade(t *model.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}
	_, err := s.db.NamedExec(`INSERT INTO trades
		(id, ticker, strategy, signal, price, quantity, pnl, notes, at)
		VALUES (:id, :ticker, :strategy, :signal, :price, :quantity, :pnl, :notes, :at)`, t)
	if err != nil {
		return fmt.Errorf("record trade %s %s: %w", t.Signal, t.Ticker, err)
	}
	return nil
}

// TradesSince returns trades at or after the given time, oldest first.
func (s *Store) TradesSince(since time.Time) ([]model.Trade, error) {
	var out []model.Trade
	err := s.db.Select(&out, `SELECT * FROM trades WHERE at >= ? ORDER BY at ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("trades since: %w", err)
	}
	return out, nil
}

// SaveCandidates replaces the screened candidate set for a date. The date is
// a yyyy-mm-dd key; earlier rows for the same date are dropped so reruns do
// not double the universe.
func (s *Store) SaveCandidates(date string, candidates []model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("save candidates: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM screened_stocks WHERE screen_date = ?`, date); err != nil {
		return fmt.Errorf("clear candidates for %s: %w", date, err)
	}
	for _, c := range candidates {
		fired, err := json.Marshal(c.IndicatorsFired)
		if err != nil {
			return fmt.Errorf("encode indicators for %s: %w", c.Ticker, err)
		}
		_, err = tx.Exec(`INSERT INTO screened_stocks
			(screen_date, ticker, category, score, rs_rating, price, atr_pct, indicators_fired)
			VALUES (?,?,?,?,?,?,?,?)`,
			date, c.Ticker, c.Category, c.Score, c.RSRating, c.Price, c.ATRPct, string(fired))
		if err != nil {
			return fmt.Errorf("save candidate %s: %w", c.Ticker, err)
		}
	}
	return tx.Commit()
}

// Candidates returns the screened candidates saved for a date.
func (s *Store) Candidates(date string) ([]model.Candidate, error) {
	var rows []struct {
		Ticker          string  `db:"ticker"`
		Category        string  `db:"category"`
		Score           float64 `db:"score"`
		RSRating        float64 `db:"rs_rating"`
		Price           float64 `db:"price"`
		ATRPct          float64 `db:"atr_pct"`
		IndicatorsFired string  `db:"indicators_fired"`
	}
	err := s.db.Select(&rows, `SELECT ticker, category, score, rs_rating, price, atr_pct, indicators_fired
		FROM screened_stocks WHERE screen_date = ? ORDER BY score DESC, ticker ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("candidates for %s: %w", date, err)
	}

	out := make([]model.Candidate, 0, len(rows))
	for _, r := range rows {
		c := model.Candidate{
			Ticker:   r.Ticker,
			Category: model.Category(r.Category),
			Score:    r.Score,
			RSRating: r.RSRating,
			Price:    r.Price,
			ATRPct:   r.ATRPct,
		}
		if r.IndicatorsFired != "" {
			// Tolerate rows written before the column carried JSON.
			_ = json.Unmarshal([]byte(r.IndicatorsFired), &c.IndicatorsFired)
		}
		out = append(out, c)
	}
	return out, nil
}

// SaveRegime appends the classifier output to the regime history.
func (s *Store) SaveRegime(state *model.RegimeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	signals, err := json.Marshal(state.Signals)
	if err != nil {
		return fmt.Errorf("encode regime signals: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO regime_history
		(regime, score, size_multiplier, allow_new_entries, signals, as_of)
		VALUES (?,?,?,?,?,?)`,
		state.Regime, state.Score, state.SizeMultiplier, state.AllowNewEntries,
		string(signals), state.AsOf)
	if err != nil {
		return fmt.Errorf("save regime: %w", err)
	}
	return nil
}

// LatestRegime returns the newest stored regime state, or nil if none exists.
// Freshness is the caller's concern.
func (s *Store) LatestRegime() (*model.RegimeState, error) {
	var row struct {
		Regime          string    `db:"regime"`
		Score           float64   `db:"score"`
		SizeMultiplier  float64   `db:"size_multiplier"`
		AllowNewEntries bool      `db:"allow_new_entries"`
		Signals         string    `db:"signals"`
		AsOf            time.Time `db:"as_of"`
	}
	err := s.db.Get(&row, `SELECT regime, score, size_multiplier, allow_new_entries, signals, as_of
		FROM regime_history ORDER BY as_of DESC, id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest regime: %w", err)
	}

	state := &model.RegimeState{
		Regime:          model.Regime(row.Regime),
		Score:           row.Score,
		SizeMultiplier:  row.SizeMultiplier,
		AllowNewEntries: row.AllowNewEntries,
		AsOf:            row.AsOf,
	}
	if row.Signals != "" {
		_ = json.Unmarshal([]byte(row.Signals), &state.Signals)
	}
	return state, nil
}
