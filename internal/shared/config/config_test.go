package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "settlement-service")

	cfg := Load()
	if cfg.HTTPPort != "8084" || cfg.MetricsPort != "9100" {
		t.Errorf("ports = %s/%s, want 8084/9100", cfg.HTTPPort, cfg.MetricsPort)
	}
	if !cfg.Rates.Deduction.Equal(decimal.RequireFromString("0.2")) || !cfg.Rates.Refund.Equal(decimal.RequireFromString("0.7")) {
		t.Errorf("rates = %+v", cfg.Rates)
	}
	if !cfg.Rates.MinOdds.Equal(decimal.RequireFromString("1.1")) || !cfg.Rates.SettlementMin.Equal(decimal.NewFromInt(1)) {
		t.Errorf("minimums = %v/%v", cfg.Rates.MinOdds, cfg.Rates.SettlementMin)
	}
	if cfg.Bet5UnitStake != 100 || cfg.OddsCacheTTL != time.Minute || cfg.MaxPoints != 1000 {
		t.Errorf("bet5 stake = %d, ttl = %s, max points = %d", cfg.Bet5UnitStake, cfg.OddsCacheTTL, cfg.MaxPoints)
	}
	if cfg.TopicRaceSettled != "race_settled" || cfg.TopicBet5Settled != "bet5_settled" {
		t.Errorf("topics = %s/%s", cfg.TopicRaceSettled, cfg.TopicBet5Settled)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "bet-service")
	t.Setenv("DEDUCTION_RATE", "0.25")
	t.Setenv("REFUND_RATE", "bogus")
	t.Setenv("BET5_UNIT_STAKE", "200")
	t.Setenv("ODDS_CACHE_TTL", "5s")
	t.Setenv("HTTP_PORT_BET", "9000")
	t.Setenv("MAX_POINTS", "50")

	cfg := Load()
	if !cfg.Rates.Deduction.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("deduction = %v, want 0.25", cfg.Rates.Deduction)
	}
	if !cfg.Rates.Refund.Equal(decimal.RequireFromString("0.7")) {
		t.Errorf("refund = %v, want default 0.7 on invalid value", cfg.Rates.Refund)
	}
	if cfg.Bet5UnitStake != 200 || cfg.OddsCacheTTL != 5*time.Second || cfg.HTTPPort != "9000" || cfg.MaxPoints != 50 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("BET5_UNIT_STAKE", "-5")
	t.Setenv("ODDS_CACHE_TTL", "soon")

	cfg := Load()
	if cfg.Bet5UnitStake != 100 || cfg.OddsCacheTTL != time.Minute {
		t.Errorf("stake = %d, ttl = %s; want defaults", cfg.Bet5UnitStake, cfg.OddsCacheTTL)
	}
}
