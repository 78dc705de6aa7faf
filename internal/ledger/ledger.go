// Package ledger tracks a strategy's capital account: cash is debited only
// after a confirmed entry fill and credited back on exit, so available cash
// plus deployed capital always equals the strategy's trading capital.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"StockPilot/internal/model"
)

// ErrInsufficientFunds is returned when a debit exceeds available cash.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Store is the persistence surface the ledger needs.
type Store interface {
	Account(strategy model.Strategy) (*model.CapitalAccount, error)
	SaveAccount(acc *model.CapitalAccount) error
	DeployedCapital(strategy model.Strategy) (float64, error)
}

// Ledger serializes capital mutations for one strategy. Every mutation is
// persisted before returning.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	strategy model.Strategy
}

func New(store Store, strategy model.Strategy) *Ledger {
	return &Ledger{store: store, strategy: strategy}
}

// Debit removes cash for a confirmed entry fill.
func (l *Ledger) Debit(amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.store.Account(l.strategy)
	if err != nil {
		return err
	}
	if amount > acc.AvailableCash {
		return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientFunds, amount, acc.AvailableCash)
	}
	acc.AvailableCash -= amount
	if err := l.store.SaveAccount(acc); err != nil {
		return fmt.Errorf("debit %.2f: %w", amount, err)
	}
	log.Debug().Str("strategy", string(l.strategy)).Float64("amount", amount).
		Float64("cash", acc.AvailableCash).Msg("capital debited")
	return nil
}

// Credit returns the original investment of a closed position to cash.
func (l *Ledger) Credit(amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.store.Account(l.strategy)
	if err != nil {
		return err
	}
	acc.AvailableCash += amount
	if err := l.store.SaveAccount(acc); err != nil {
		return fmt.Errorf("credit %.2f: %w", amount, err)
	}
	log.Debug().Str("strategy", string(l.strategy)).Float64("amount", amount).
		Float64("cash", acc.AvailableCash).Msg("capital credited")
	return nil
}

// RecordPnL applies realized profit or loss to cash and the running
// profit/loss totals.
func (l *Ledger) RecordPnL(pnl float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.store.Account(l.strategy)
	if err != nil {
		return err
	}
	acc.AvailableCash += pnl
	if pnl >= 0 {
		acc.ProfitsLocked += pnl
	} else {
		acc.TotalLosses += -pnl
	}
	if err := l.store.SaveAccount(acc); err != nil {
		return fmt.Errorf("record pnl %.2f: %w", pnl, err)
	}
	log.Info().Str("strategy", string(l.strategy)).Float64("pnl", pnl).
		Float64("cash", acc.AvailableCash).Msg("realized pnl booked")
	return nil
}

// AvailableCash returns the current uninvested cash.
func (l *Ledger) AvailableCash() (float64, error) {
	acc, err := l.store.Account(l.strategy)
	if err != nil {
		return 0, err
	}
	return acc.AvailableCash, nil
}

// TradingCapital returns available cash plus capital deployed in active
// positions.
func (l *Ledger) TradingCapital() (float64, error) {
	acc, err := l.store.Account(l.strategy)
	if err != nil {
		return 0, err
	}
	deployed, err := l.store.DeployedCapital(l.strategy)
	if err != nil {
		return 0, err
	}
	return acc.TradingCapital(deployed), nil
}

// Account returns a copy of the current account row.
func (l *Ledger) Account() (*model.CapitalAccount, error) {
	return l.store.Account(l.strategy)
}
