package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StockPilot/internal/history"
	"StockPilot/internal/model"
)

// SavePosition inserts a new position. A missing ID is generated.
func (s *Store) SavePosition(p *model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.NamedExec(`INSERT INTO positions
		(id, ticker, strategy, entry_price, quantity, stop_loss, take_profit,
		 category, tier, entry_date, status, exit_date, exit_price, realized_pnl)
		VALUES (:id, :ticker, :strategy, :entry_price, :quantity, :stop_loss, :take_profit,
		 :category, :tier, :entry_date, :status, :exit_date, :exit_price, :realized_pnl)`, p)
	if err != nil {
		return fmt.Errorf("save position %s: %w", p.Ticker, err)
	}
	return nil
}

// ActivePositions returns the open positions for a strategy, oldest first.
func (s *Store) ActivePositions(strategy model.Strategy) ([]model.Position, error) {
	var out []model.Position
	err := s.db.Select(&out, `SELECT * FROM positions
		WHERE strategy = ? AND status = ? ORDER BY entry_date ASC`,
		strategy, model.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("active positions: %w", err)
	}
	return out, nil
}

// ClosePosition marks a position closed with its exit fill and realized P&L.
func (s *Store) ClosePosition(id string, exitPrice, pnl float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE positions
		SET status = ?, exit_date = ?, exit_price = ?, realized_pnl = ?
		WHERE id = ? AND status = ?`,
		model.StatusClosed, at, exitPrice, pnl, id, model.StatusActive)
	if err != nil {
		return fmt.Errorf("close position %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("close position %s: not found or already closed", id)
	}
	return nil
}

// DeployedCapital sums entry price x quantity over a strategy's active
// positions.
func (s *Store) DeployedCapital(strategy model.Strategy) (float64, error) {
	var deployed float64
	err := s.db.Get(&deployed, `SELECT COALESCE(SUM(entry_price * quantity), 0)
		FROM positions WHERE strategy = ? AND status = ?`,
		strategy, model.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("deployed capital: %w", err)
	}
	return deployed, nil
}

// RecentLosingExit returns the most recent losing exit for a ticker within
// the lookback window, or nil. Satisfies history.Source.
func (s *Store) RecentLosingExit(ticker string, lookbackDays int) (*history.ExitRecord, error) {
	cutoff := time.Now().AddDate(0, 0, -lookbackDays)

	var row struct {
		ExitDate    time.Time `db:"exit_date"`
		RealizedPnL float64   `db:"realized_pnl"`
	}
	err := s.db.Get(&row, `SELECT exit_date, realized_pnl FROM positions
		WHERE ticker = ? AND status = ? AND realized_pnl < 0 AND exit_date >= ?
		ORDER BY exit_date DESC LIMIT 1`,
		ticker, model.StatusClosed, cutoff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recent losing exit %s: %w", ticker, err)
	}

	return &history.ExitRecord{
		Ticker:   ticker,
		ExitDate: row.ExitDate,
		DaysAgo:  int(time.Since(row.ExitDate).Hours() / 24),
		Loss:     row.RealizedPnL,
	}, nil
}
