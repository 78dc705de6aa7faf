package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Schedule.RegimeCron == "" || cfg.Schedule.MonitorCron == "" || cfg.Schedule.EODCron == "" {
		t.Error("expected default schedule crons")
	}
	if cfg.Allocation.TargetLarge != 0.60 || cfg.Allocation.TargetMid != 0.20 || cfg.Allocation.TargetMicro != 0.20 {
		t.Errorf("unexpected default targets: %+v", cfg.Allocation)
	}
	if cfg.Allocation.MinPositionSize != 20000 || cfg.Allocation.MaxPositionSize != 100000 {
		t.Errorf("unexpected default size bounds: %+v", cfg.Allocation)
	}
	if cfg.Strategies.Daily.Policy != "equal_split" || cfg.Strategies.Swing.Policy != "tiered" {
		t.Errorf("unexpected default policies: daily=%s swing=%s",
			cfg.Strategies.Daily.Policy, cfg.Strategies.Swing.Policy)
	}
	if cfg.Strategies.Daily.MaxHoldDays != 3 || cfg.Strategies.Swing.MaxHoldDays != 10 {
		t.Errorf("unexpected default hold periods: %+v", cfg.Strategies)
	}
	if !cfg.TradingEnabled {
		t.Error("trading should default to enabled")
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: from-file
  chat_id: "123"
strategies:
  daily:
    capital: 300000
  swing:
    disabled: true
allocation:
  min_score: 65
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("DAILY_CAPITAL", "250000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Telegram.BotToken != "from-env" {
		t.Errorf("env must override file, got %s", cfg.Telegram.BotToken)
	}
	if cfg.Strategies.Daily.Capital != 250000 {
		t.Errorf("expected env capital 250000, got %.0f", cfg.Strategies.Daily.Capital)
	}
	if !cfg.Strategies.Swing.Disabled {
		t.Error("expected swing disabled from file")
	}
	if cfg.Allocation.MinScore != 65 {
		t.Errorf("expected min score 65, got %.0f", cfg.Allocation.MinScore)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure without telegram credentials")
	}

	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "chat"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Strategies.Daily.Policy = "martingale"
	if err := cfg.Validate(); err == nil {
		t.Error("expected rejection of unknown policy")
	}
}
