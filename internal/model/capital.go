package model

import "time"

// CapitalAccount is the per-strategy capital ledger row. AvailableCash is
// debited on entry (entry price × quantity) and credited back the original
// investment plus/minus realized P&L on exit, so it always equals trading
// capital minus the sum invested in active positions.
type CapitalAccount struct {
	Strategy       Strategy  `db:"strategy"`
	InitialCapital float64   `db:"initial_capital"`
	AvailableCash  float64   `db:"available_cash"`
	ProfitsLocked  float64   `db:"profits_locked"`
	TotalLosses    float64   `db:"total_losses"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// TradingCapital returns available cash plus the given deployed amount,
// i.e. the strategy's current total capital.
func (a *CapitalAccount) TradingCapital(deployed float64) float64 {
	return a.AvailableCash + deployed
}
