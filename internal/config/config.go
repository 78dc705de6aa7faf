package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// StrategyConfig holds one strategy's capital and entry policy settings.
type StrategyConfig struct {
	Disabled     bool    `yaml:"disabled"`
	Capital      float64 `yaml:"capital"`
	Policy       string  `yaml:"policy"` // "equal_split" or "tiered"
	MaxPositions int     `yaml:"max_positions"`
	MaxHoldDays  int     `yaml:"max_hold_days"`
	EntryCron    string  `yaml:"entry_cron"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		RegimeCron  string `yaml:"regime_cron"`
		MonitorCron string `yaml:"monitor_cron"`
		EODCron     string `yaml:"eod_cron"`
	} `yaml:"schedule"`
	Allocation struct {
		TargetLarge     float64 `yaml:"target_large"`
		TargetMid       float64 `yaml:"target_mid"`
		TargetMicro     float64 `yaml:"target_micro"`
		MinPositionSize float64 `yaml:"min_position_size"`
		MaxPositionSize float64 `yaml:"max_position_size"`
		MinScore        float64 `yaml:"min_score"`
		MinRSRating     float64 `yaml:"min_rs_rating"`
		ExitLookback    int     `yaml:"exit_lookback_days"`
	} `yaml:"allocation"`
	Strategies struct {
		Daily StrategyConfig `yaml:"daily"`
		Swing StrategyConfig `yaml:"swing"`
	} `yaml:"strategies"`
	TradingEnabled bool   `yaml:"trading_enabled"`
	Proxy          string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{TradingEnabled: true}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TRADING_ENABLED"); v != "" {
		cfg.TradingEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("DAILY_CAPITAL"); v != "" {
		if c, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategies.Daily.Capital = c
		}
	}
	if v := os.Getenv("SWING_CAPITAL"); v != "" {
		if c, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategies.Swing.Capital = c
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stockpilot.db"
	}
	// Morning global market check before NSE opens (server clock on IST).
	if cfg.Schedule.RegimeCron == "" {
		cfg.Schedule.RegimeCron = "0 30 8 * * 1-5"
	}
	if cfg.Schedule.MonitorCron == "" {
		cfg.Schedule.MonitorCron = "0 0 10-15 * * 1-5"
	}
	if cfg.Schedule.EODCron == "" {
		cfg.Schedule.EODCron = "0 45 15 * * 1-5"
	}

	a := &cfg.Allocation
	if a.TargetLarge == 0 && a.TargetMid == 0 && a.TargetMicro == 0 {
		a.TargetLarge, a.TargetMid, a.TargetMicro = 0.60, 0.20, 0.20
	}
	if a.MinPositionSize == 0 {
		a.MinPositionSize = 20000
	}
	if a.MaxPositionSize == 0 {
		a.MaxPositionSize = 100000
	}
	if a.MinScore == 0 {
		a.MinScore = 60
	}
	if a.MinRSRating == 0 {
		a.MinRSRating = 60
	}
	if a.ExitLookback == 0 {
		a.ExitLookback = 7
	}

	applyStrategyDefaults(&cfg.Strategies.Daily, "equal_split", 500000, 3, "0 20 9 * * 1-5")
	applyStrategyDefaults(&cfg.Strategies.Swing, "tiered", 500000, 10, "0 35 9 * * 1-5")
}

func applyStrategyDefaults(sc *StrategyConfig, policy string, capital float64, holdDays int, entryCron string) {
	if sc.Policy == "" {
		sc.Policy = policy
	}
	if sc.Capital == 0 {
		sc.Capital = capital
	}
	if sc.MaxPositions == 0 {
		sc.MaxPositions = 10
	}
	if sc.MaxHoldDays == 0 {
		sc.MaxHoldDays = holdDays
	}
	if sc.EntryCron == "" {
		sc.EntryCron = entryCron
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	for _, sc := range []StrategyConfig{c.Strategies.Daily, c.Strategies.Swing} {
		if sc.Capital < 0 {
			return fmt.Errorf("strategy capital must not be negative")
		}
		if sc.Policy != "equal_split" && sc.Policy != "tiered" {
			return fmt.Errorf("unknown allocation policy %q", sc.Policy)
		}
	}
	a := c.Allocation
	if a.MinPositionSize <= 0 || a.MaxPositionSize < a.MinPositionSize {
		return fmt.Errorf("position size bounds invalid: min=%.0f max=%.0f", a.MinPositionSize, a.MaxPositionSize)
	}
	total := a.TargetLarge + a.TargetMid + a.TargetMicro
	if total <= 0 {
		return fmt.Errorf("target allocation fractions must sum to a positive value")
	}
	return nil
}
