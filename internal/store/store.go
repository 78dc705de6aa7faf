// Package store persists positions, capital accounts, trades, screened
// candidates and regime history in a single SQLite database. One Store is
// shared by both strategies; writes are serialized with a mutex.
package store

import (
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so command handlers can read while a trading job writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", path).Msg("sqlite store opened")
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id           TEXT PRIMARY KEY,
			ticker       TEXT NOT NULL,
			strategy     TEXT NOT NULL,
			entry_price  REAL NOT NULL,
			quantity     INTEGER NOT NULL,
			stop_loss    REAL,
			take_profit  REAL,
			category     TEXT,
			tier         TEXT,
			entry_date   TIMESTAMP NOT NULL,
			status       TEXT NOT NULL,
			exit_date    TIMESTAMP,
			exit_price   REAL,
			realized_pnl REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(strategy, status)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_ticker ON positions(ticker)`,

		`CREATE TABLE IF NOT EXISTS capital (
			strategy        TEXT PRIMARY KEY,
			initial_capital REAL NOT NULL,
			available_cash  REAL NOT NULL,
			profits_locked  REAL NOT NULL DEFAULT 0,
			total_losses    REAL NOT NULL DEFAULT 0,
			updated_at      TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id       TEXT PRIMARY KEY,
			ticker   TEXT NOT NULL,
			strategy TEXT NOT NULL,
			signal   TEXT NOT NULL,
			price    REAL NOT NULL,
			quantity INTEGER NOT NULL,
			pnl      REAL,
			notes    TEXT,
			at       TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_at ON trades(at)`,

		`CREATE TABLE IF NOT EXISTS screened_stocks (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			screen_date      TEXT NOT NULL,
			ticker           TEXT NOT NULL,
			category         TEXT NOT NULL,
			score            REAL NOT NULL,
			rs_rating        REAL NOT NULL,
			price            REAL,
			atr_pct          REAL,
			indicators_fired TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_screened_date ON screened_stocks(screen_date)`,

		`CREATE TABLE IF NOT EXISTS regime_history (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			regime            TEXT NOT NULL,
			score             REAL NOT NULL,
			size_multiplier   REAL NOT NULL,
			allow_new_entries INTEGER NOT NULL,
			signals           TEXT,
			as_of             TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_regime_as_of ON regime_history(as_of)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	log.Debug().Msg("closing sqlite store")
	return s.db.Close()
}
