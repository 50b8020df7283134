package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	period, err := cfg.History.PeriodDuration()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if period != 14*24*time.Hour {
		t.Errorf("unexpected period: %v", period)
	}
	timeframe, err := cfg.History.TimeframeDuration()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeframe != 30*time.Minute {
		t.Errorf("unexpected timeframe: %v", timeframe)
	}
	if !cfg.Prometheus.SSLEnabled {
		t.Error("SSL verification should default on")
	}
	if cfg.Prometheus.Retries != 3 {
		t.Errorf("unexpected retries: %d", cfg.Prometheus.Retries)
	}
}

func TestDurationAccessorsReturnParseErrors(t *testing.T) {
	h := HistoryConfig{Period: "two weeks", Timeframe: "half an hour"}
	if _, err := h.PeriodDuration(); err == nil {
		t.Error("expected error for unparseable period")
	}
	if _, err := h.TimeframeDuration(); err == nil {
		t.Error("expected error for unparseable timeframe")
	}
}

func TestValidateRejectsBadPeriod(t *testing.T) {
	cfg := Default()
	cfg.History.Period = "two weeks"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unparseable period")
	}
}

func TestValidateRejectsSubMinuteTimeframe(t *testing.T) {
	cfg := Default()
	cfg.History.Timeframe = "30s"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for sub-minute timeframe")
	}
	if !strings.Contains(err.Error(), "at least 1m") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsTimeframeOverPeriod(t *testing.T) {
	cfg := Default()
	cfg.History.Period = "1h"
	cfg.History.Timeframe = "2h"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when timeframe exceeds period")
	}
}

func TestValidateRejectsBadPercentile(t *testing.T) {
	for _, p := range []float64{0, -0.5, 1.5} {
		cfg := Default()
		cfg.Strategy.CPUPercentile = p
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for percentile %v", p)
		}
	}
}

func TestValidateRejectsBadMemoryBuffer(t *testing.T) {
	cfg := Default()
	cfg.Strategy.MemoryBuffer = 0.9
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for buffer below 1.0")
	}
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := Default()
	cfg.Strategy.Name = "clever"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	cfg := Default()
	cfg.Output.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown output format")
	}
}
