package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"StockPilot/internal/model"
)

// ErrNoAccount marks a strategy without a capital account yet. Callers that
// can seed one check for it with errors.Is; anything else is a real failure.
var ErrNoAccount = errors.New("no capital account")

// Account loads a strategy's capital account.
func (s *Store) Account(strategy model.Strategy) (*model.CapitalAccount, error) {
	var acc model.CapitalAccount
	err := s.db.Get(&acc, `SELECT * FROM capital WHERE strategy = ?`, strategy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("strategy %s: %w", strategy, ErrNoAccount)
	}
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", strategy, err)
	}
	return &acc, nil
}

// SaveAccount upserts a capital account.
func (s *Store) SaveAccount(acc *model.CapitalAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc.UpdatedAt = time.Now()
	_, err := s.db.NamedExec(`INSERT INTO capital
		(strategy, initial_capital, available_cash, profits_locked, total_losses, updated_at)
		VALUES (:strategy, :initial_capital, :available_cash, :profits_locked, :total_losses, :updated_at)
		ON CONFLICT(strategy) DO UPDATE SET
			available_cash = excluded.available_cash,
			profits_locked = excluded.profits_locked,
			total_losses   = excluded.total_losses,
			updated_at     = excluded.updated_at`, acc)
	if err != nil {
		return fmt.Errorf("save account %s: %w", acc.Strategy, err)
	}
	return nil
}

// EnsureAccount creates a capital account seeded with the configured initial
// capital if none exists yet. An existing account is left untouched so
// restarts never reset cash.
func (s *Store) EnsureAccount(strategy model.Strategy, initial float64) (*model.CapitalAccount, error) {
	acc, err := s.Account(strategy)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, ErrNoAccount) {
		// A read failure is not a missing account; creating here would
		// reset a live ledger to its initial capital.
		return nil, err
	}

	acc = &model.CapitalAccount{
		Strategy:       strategy,
		InitialCapital: initial,
		AvailableCash:  initial,
	}
	if err := s.SaveAccount(acc); err != nil {
		return nil, err
	}
	log.Info().Str("strategy", string(strategy)).Float64("capital", initial).
		Msg("capital account initialized")
	return acc, nil
}
