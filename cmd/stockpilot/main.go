package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"StockPilot/internal/allocator"
	"StockPilot/internal/collector"
	"StockPilot/internal/config"
	"StockPilot/internal/executor"
	"StockPilot/internal/history"
	"StockPilot/internal/ledger"
	"StockPilot/internal/model"
	"StockPilot/internal/notifier"
	"StockPilot/internal/regime"
	"StockPilot/internal/scheduler"
	"StockPilot/internal/screener"
	"StockPilot/internal/store"
)

var cfgPath string

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	root := &cobra.Command{
		Use:           "stockpilot",
		Short:         "Automated NSE trading with regime-gated capital allocation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to config file")

	root.AddCommand(serveCmd(), regimeCmd(), planCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// app holds the wired components shared by the commands.
type app struct {
	cfg        *config.Config
	store      *store.Store
	collector  *collector.Collector
	screener   *screener.Screener
	notifier   *notifier.TelegramNotifier
	strategies []*scheduler.StrategyRuntime
}

func buildApp(requireTelegram bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if requireTelegram {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}

	st, err := store.Open(cfg.Database.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	fetcher := collector.NewYahooFetcher(cfg.Proxy)
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	a := &app{
		cfg:       cfg,
		store:     st,
		collector: collector.NewCollector(fetcher),
		screener:  screener.New(st),
		notifier:  tn,
	}

	exits := history.NewFilter(st, cfg.Allocation.ExitLookback)
	broker := executor.NewPaperBroker()

	for _, def := range []struct {
		name model.Strategy
		sc   config.StrategyConfig
	}{
		{model.StrategyDaily, cfg.Strategies.Daily},
		{model.StrategySwing, cfg.Strategies.Swing},
	} {
		if def.sc.Disabled {
			continue
		}
		if _, err := st.EnsureAccount(def.name, def.sc.Capital); err != nil {
			st.Close()
			return nil, fmt.Errorf("init %s account: %w", def.name, err)
		}

		policy, err := allocator.ParsePolicy(def.sc.Policy)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("%s: %w", def.name, err)
		}
		params := allocator.Params{
			Policy: policy,
			Targets: map[model.Category]float64{
				model.CategoryLarge: cfg.Allocation.TargetLarge,
				model.CategoryMid:   cfg.Allocation.TargetMid,
				model.CategoryMicro: cfg.Allocation.TargetMicro,
			},
			MinPositionSize: cfg.Allocation.MinPositionSize,
			MaxPositionSize: cfg.Allocation.MaxPositionSize,
			MinScore:        cfg.Allocation.MinScore,
			MinRSRating:     cfg.Allocation.MinRSRating,
		}

		ldg := ledger.New(st, def.name)
		var driverNotify executor.Notifier
		if tn != nil {
			driverNotify = tn
		}
		a.strategies = append(a.strategies, &scheduler.StrategyRuntime{
			Name:      def.name,
			Config:    def.sc,
			Allocator: allocator.New(params, exits),
			Ledger:    ldg,
			Driver:    executor.New(def.name, broker, fetcher, st, ldg, driverNotify),
		})
	}
	if len(a.strategies) == 0 {
		st.Close()
		return nil, fmt.Errorf("no strategies enabled")
	}
	return a, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the trading bot with all scheduled tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(true)
			if err != nil {
				return err
			}
			defer a.store.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sched := scheduler.NewScheduler(ctx, a.collector, a.store, a.screener, a.notifier, a.strategies)
			if !a.cfg.TradingEnabled {
				sched.Pause()
				log.Warn().Msg("trading disabled by config, entry runs paused")
			}
			if err := sched.RegisterAll(a.cfg.Schedule.RegimeCron, a.cfg.Schedule.MonitorCron, a.cfg.Schedule.EODCron); err != nil {
				return fmt.Errorf("register cron tasks: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			go a.notifier.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")

			if os.Getenv("RUN_ON_START") == "true" {
				log.Info().Msg("RUN_ON_START enabled, classifying regime now")
				go sched.RunRegimeNow()
			}

			log.Info().Msg("stockpilot is running, press Ctrl+C to stop")
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Info().Msg("shutdown signal received, stopping")
			cancel()
			return nil
		},
	}
}

func regimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regime",
		Short: "Classify the market regime once and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(false)
			if err != nil {
				return err
			}
			defer a.store.Close()

			snap, err := a.collector.Snapshot()
			if err != nil {
				return fmt.Errorf("collect market data: %w", err)
			}
			state, err := regime.Classify(snap)
			if err != nil {
				return err
			}
			state.AsOf = time.Now()
			if err := a.store.SaveRegime(state); err != nil {
				log.Error().Err(err).Msg("regime persist failed")
			}
			fmt.Println(notifier.FormatRegimeReport(state, regime.Guidance(state.Regime)))
			return nil
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Build today's allocation plans without placing orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(false)
			if err != nil {
				return err
			}
			defer a.store.Close()

			state, err := a.store.LatestRegime()
			if err != nil {
				return err
			}
			if state == nil || time.Since(state.AsOf) > 24*time.Hour {
				return fmt.Errorf("no fresh market regime stored; run `stockpilot regime` first")
			}

			universe, err := a.screener.Universe(time.Now())
			if err != nil {
				return fmt.Errorf("load candidates: %w", err)
			}
			for _, rt := range a.strategies {
				cash, err := rt.Ledger.AvailableCash()
				if err != nil {
					return err
				}
				plan := rt.Allocator.Allocate(rt.Name, universe, cash, state)
				fmt.Println(notifier.FormatAllocationPlan(plan))
				fmt.Println()
			}
			return nil
		},
	}
}
