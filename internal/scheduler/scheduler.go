// Package scheduler wires the trading day together: the morning regime check,
// per-strategy entry runs, the intraday position monitor, the end-of-day
// summary, and the Telegram command surface.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"StockPilot/internal/allocator"
	"StockPilot/internal/collector"
	"StockPilot/internal/config"
	"StockPilot/internal/executor"
	"StockPilot/internal/ledger"
	"StockPilot/internal/model"
	"StockPilot/internal/notifier"
	"StockPilot/internal/regime"
	"StockPilot/internal/screener"
	"StockPilot/internal/store"
)

// regimeMaxAge is how old a stored regime may be before entry runs treat it
// as missing and skip conservatively.
const regimeMaxAge = 24 * time.Hour

// StrategyRuntime bundles one strategy's components.
type StrategyRuntime struct {
	Name      model.Strategy
	Config    config.StrategyConfig
	Allocator *allocator.Allocator
	Ledger    *ledger.Ledger
	Driver    *executor.Driver
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Store      *store.Store
	Screener   *screener.Screener
	Notifier   *notifier.TelegramNotifier
	Strategies []*StrategyRuntime
	Ctx        context.Context

	mu     sync.Mutex
	paused bool
}

// NewScheduler creates a Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, st *store.Store, scr *screener.Screener, tn *notifier.TelegramNotifier, strategies []*StrategyRuntime) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Collector:  col,
		Store:      st,
		Screener:   scr,
		Notifier:   tn,
		Strategies: strategies,
		Ctx:        ctx,
	}
}

// RegisterAll registers the regime check, entry runs, monitor and EOD tasks.
func (s *Scheduler) RegisterAll(regimeCron, monitorCron, eodCron string) error {
	if _, err := s.Cron.AddFunc(regimeCron, s.regimeTask); err != nil {
		return fmt.Errorf("register regime task: %w", err)
	}
	for _, rt := range s.Strategies {
		if rt.Config.Disabled {
			log.Info().Str("strategy", string(rt.Name)).Msg("strategy disabled, entry run not scheduled")
			continue
		}
		rt := rt
		if _, err := s.Cron.AddFunc(rt.Config.EntryCron, func() { s.entryRun(rt) }); err != nil {
			return fmt.Errorf("register %s entry run: %w", rt.Name, err)
		}
	}
	if _, err := s.Cron.AddFunc(monitorCron, s.monitorTask); err != nil {
		return fmt.Errorf("register monitor task: %w", err)
	}
	if _, err := s.Cron.AddFunc(eodCron, s.eodTask); err != nil {
		return fmt.Errorf("register eod task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info().Msg("scheduler stopped")
}

// RunRegimeNow executes the regime task immediately (manual trigger or
// RUN_ON_START).
func (s *Scheduler) RunRegimeNow() {
	s.regimeTask()
}

// regimeTask classifies the market and persists the result for the day's
// entry runs.
func (s *Scheduler) regimeTask() {
	log.Info().Msg("running regime classification")
	state, err := s.classify()
	if err != nil {
		log.Error().Err(err).Msg("regime classification failed")
		s.trySend(fmt.Sprintf("❌ Regime check failed: %v\nEntries will be skipped until data recovers.", err))
		return
	}
	s.trySend(notifier.FormatRegimeReport(state, regime.Guidance(state.Regime)))
}

func (s *Scheduler) classify() (*model.RegimeState, error) {
	snap, err := s.Collector.Snapshot()
	if err != nil {
		return nil, err
	}
	state, err := regime.Classify(snap)
	if err != nil {
		return nil, err
	}
	state.AsOf = time.Now()
	if err := s.Store.SaveRegime(state); err != nil {
		log.Error().Err(err).Msg("regime persist failed")
	}
	return state, nil
}

// currentRegime returns today's stored regime, or nil when missing or stale.
func (s *Scheduler) currentRegime() *model.RegimeState {
	state, err := s.Store.LatestRegime()
	if err != nil {
		log.Error().Err(err).Msg("regime lookup failed")
		return nil
	}
	if state == nil || time.Since(state.AsOf) > regimeMaxAge {
		return nil
	}
	return state
}

// entryRun builds and executes the allocation plan for one strategy.
func (s *Scheduler) entryRun(rt *StrategyRuntime) {
	if s.Paused() {
		log.Info().Str("strategy", string(rt.Name)).Msg("trading paused, entry run skipped")
		return
	}
	log.Info().Str("strategy", string(rt.Name)).Msg("running entry")

	state := s.currentRegime()
	if state == nil {
		// No fresh regime means no basis for sizing. Skip, never guess.
		log.Warn().Str("strategy", string(rt.Name)).Msg("no fresh regime, entry run skipped")
		s.trySend(fmt.Sprintf("⚠️ %s entry skipped: no fresh market regime", rt.Name))
		return
	}

	universe, err := s.Screener.Universe(time.Now())
	if err != nil {
		log.Error().Err(err).Str("strategy", string(rt.Name)).Msg("candidate load failed")
		s.trySend(fmt.Sprintf("❌ %s entry failed: %v", rt.Name, err))
		return
	}

	cash, err := rt.Ledger.AvailableCash()
	if err != nil {
		log.Error().Err(err).Str("strategy", string(rt.Name)).Msg("capital lookup failed")
		return
	}

	plan := rt.Allocator.Allocate(rt.Name, universe, cash, state)
	s.trySend(notifier.FormatAllocationPlan(plan))
	if plan.TotalPositions == 0 {
		return
	}

	sequence := allocator.Sequence(plan)
	if room := s.positionRoom(rt); room < len(sequence) {
		log.Info().Str("strategy", string(rt.Name)).Int("room", room).Int("planned", len(sequence)).
			Msg("plan truncated to position limit")
		if room <= 0 {
			return
		}
		sequence = sequence[:room]
	}

	entered, err := rt.Driver.EnterPositions(s.Ctx, sequence)
	if err != nil {
		log.Error().Err(err).Str("strategy", string(rt.Name)).Msg("entry run interrupted")
	}
	log.Info().Str("strategy", string(rt.Name)).Int("entered", len(entered)).Msg("entry run done")
}

// positionRoom returns how many new positions the strategy may still open.
func (s *Scheduler) positionRoom(rt *StrategyRuntime) int {
	if rt.Config.MaxPositions <= 0 {
		return int(^uint(0) >> 1)
	}
	active, err := s.Store.ActivePositions(rt.Name)
	if err != nil {
		log.Error().Err(err).Str("strategy", string(rt.Name)).Msg("active position count failed")
		return 0
	}
	return rt.Config.MaxPositions - len(active)
}

// monitorTask checks stops, targets and holding periods for every strategy.
func (s *Scheduler) monitorTask() {
	for _, rt := range s.Strategies {
		if rt.Config.Disabled {
			continue
		}
		closed, err := rt.Driver.MonitorPositions(s.Ctx, rt.Config.MaxHoldDays)
		if err != nil {
			log.Error().Err(err).Str("strategy", string(rt.Name)).Msg("monitor pass failed")
			continue
		}
		if len(closed) > 0 {
			log.Info().Str("strategy", string(rt.Name)).Int("closed", len(closed)).Msg("positions exited")
		}
	}
}

// eodTask sends the end-of-day summary.
func (s *Scheduler) eodTask() {
	log.Info().Msg("running end-of-day summary")
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	trades, err := s.Store.TradesSince(midnight)
	if err != nil {
		log.Error().Err(err).Msg("trade log read failed")
		return
	}
	accounts := make([]*model.CapitalAccount, 0, len(s.Strategies))
	open := make(map[model.Strategy]int, len(s.Strategies))
	for _, rt := range s.Strategies {
		acc, err := rt.Ledger.Account()
		if err != nil {
			log.Error().Err(err).Str("strategy", string(rt.Name)).Msg("account read failed")
			continue
		}
		accounts = append(accounts, acc)
		if active, err := s.Store.ActivePositions(rt.Name); err == nil {
			open[rt.Name] = len(active)
		}
	}
	s.trySend(notifier.FormatEODSummary(trades, accounts, open))
}

// Pause stops new entry runs; monitoring and exits keep working.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume re-enables entry runs.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/regime":
		state, err := s.classify()
		if err != nil {
			return fmt.Sprintf("❌ Regime check failed: %v", err)
		}
		return notifier.FormatRegimeReport(state, regime.Guidance(state.Regime))
	case "/capital":
		var parts []string
		for _, rt := range s.Strategies {
			acc, err := rt.Ledger.Account()
			if err != nil {
				parts = append(parts, fmt.Sprintf("❌ %s: %v", rt.Name, err))
				continue
			}
			deployed, _ := s.Store.DeployedCapital(rt.Name)
			active, _ := s.Store.ActivePositions(rt.Name)
			parts = append(parts, notifier.FormatCapitalStatus(acc, deployed, len(active)))
		}
		return strings.Join(parts, "\n")
	case "/positions":
		var parts []string
		for _, rt := range s.Strategies {
			active, err := s.Store.ActivePositions(rt.Name)
			if err != nil {
				parts = append(parts, fmt.Sprintf("❌ %s: %v", rt.Name, err))
				continue
			}
			parts = append(parts, notifier.FormatPositions(rt.Name, active))
		}
		return strings.Join(parts, "\n")
	case "/plan":
		state := s.currentRegime()
		if state == nil {
			return "⚠️ No fresh market regime; run /regime first"
		}
		universe, err := s.Screener.Universe(time.Now())
		if err != nil {
			return fmt.Sprintf("❌ Candidate load failed: %v", err)
		}
		var parts []string
		for _, rt := range s.Strategies {
			cash, err := rt.Ledger.AvailableCash()
			if err != nil {
				parts = append(parts, fmt.Sprintf("❌ %s: %v", rt.Name, err))
				continue
			}
			parts = append(parts, notifier.FormatAllocationPlan(rt.Allocator.Allocate(rt.Name, universe, cash, state)))
		}
		return strings.Join(parts, "\n")
	case "/pause":
		s.Pause()
		return "⏸ Trading paused. Monitoring and exits stay active."
	case "/resume":
		s.Resume()
		return "▶️ Trading resumed."
	default:
		return "Commands:\n/regime - market regime now\n/capital - capital accounts\n/positions - open positions\n/plan - dry-run allocation\n/pause /resume - gate new entries"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
