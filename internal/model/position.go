package model

import "time"

// Strategy identifies an independently scheduled trading strategy with its
// own capital account.
type Strategy string

const (
	StrategyDaily Strategy = "DAILY"
	StrategySwing Strategy = "SWING"
)

// PositionStatus tracks a position through its lifecycle.
type PositionStatus string

const (
	StatusActive PositionStatus = "ACTIVE"
	StatusClosed PositionStatus = "CLOSED"
)

// Position is a persisted holding. Created on entry, mutated once on exit;
// closed positions are retained for historical-exit lookups.
type Position struct {
	ID          string         `db:"id"`
	Ticker      string         `db:"ticker"`
	Strategy    Strategy       `db:"strategy"`
	EntryPrice  float64        `db:"entry_price"`
	Quantity    int            `db:"quantity"`
	StopLoss    float64        `db:"stop_loss"`
	TakeProfit  float64        `db:"take_profit"`
	Category    Category       `db:"category"`
	Tier        Tier           `db:"tier"`
	EntryDate   time.Time      `db:"entry_date"`
	Status      PositionStatus `db:"status"`
	ExitDate    *time.Time     `db:"exit_date"`
	ExitPrice   *float64       `db:"exit_price"`
	RealizedPnL *float64       `db:"realized_pnl"`
}

// Investment returns the capital debited when the position was entered.
func (p *Position) Investment() float64 {
	return p.EntryPrice * float64(p.Quantity)
}

// Trade is one row of the append-only trade log.
type Trade struct {
	ID       string    `db:"id"`
	Ticker   string    `db:"ticker"`
	Strategy Strategy  `db:"strategy"`
	Signal   string    `db:"signal"` // BUY or SELL
	Price    float64   `db:"price"`
	Quantity int       `db:"quantity"`
	PnL      float64   `db:"pnl"`
	Notes    string    `db:"notes"`
	At       time.Time `db:"at"`
}
