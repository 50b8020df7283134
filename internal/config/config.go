package config

import (
	"fmt"
	"time"

	prommodel "github.com/prometheus/common/model"
)

// Config is the top-level configuration for rightscope.
type Config struct {
	Cluster    ClusterConfig    `mapstructure:"cluster"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Kubernetes KubernetesConfig `mapstructure:"kubernetes"`
	History    HistoryConfig    `mapstructure:"history"`
	Strategy   StrategyConfig   `mapstructure:"strategy"`
	Output     OutputConfig     `mapstructure:"output"`
}

type ClusterConfig struct {
	Name string `mapstructure:"name"`
}

type PrometheusConfig struct {
	URL        string `mapstructure:"url"`
	AuthHeader string `mapstructure:"auth_header"`
	SSLEnabled bool   `mapstructure:"ssl_enabled"`
	Retries    uint64 `mapstructure:"retries"`
}

type KubernetesConfig struct {
	Kubeconfig         string   `mapstructure:"kubeconfig"`
	Context            string   `mapstructure:"context"`
	Namespace          string   `mapstructure:"namespace"` // empty = all namespaces
	ExcludeNamespaces  []string `mapstructure:"exclude_namespaces"`
	DiscoveryNamespace string   `mapstructure:"discovery_namespace"`
	DiscoverySelectors []string `mapstructure:"discovery_selectors"` // empty = built-in list
}

// HistoryConfig holds the lookback window as Prometheus duration strings
// ("14d", "30m") so config files read naturally.
type HistoryConfig struct {
	Period    string `mapstructure:"period"`
	Timeframe string `mapstructure:"timeframe"`
}

// PeriodDuration returns the parsed lookback length.
func (h HistoryConfig) PeriodDuration() (time.Duration, error) {
	d, err := prommodel.ParseDuration(h.Period)
	if err != nil {
		return 0, fmt.Errorf("history period %q: %w", h.Period, err)
	}
	return time.Duration(d), nil
}

// TimeframeDuration returns the parsed sampling granularity.
func (h HistoryConfig) TimeframeDuration() (time.Duration, error) {
	d, err := prommodel.ParseDuration(h.Timeframe)
	if err != nil {
		return 0, fmt.Errorf("history timeframe %q: %w", h.Timeframe, err)
	}
	return time.Duration(d), nil
}

type StrategyConfig struct {
	Name          string  `mapstructure:"name"`
	CPUPercentile float64 `mapstructure:"cpu_percentile"`
	MemoryBuffer  float64 `mapstructure:"memory_buffer"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Prometheus: PrometheusConfig{
			SSLEnabled: true,
			Retries:    3,
		},
		Kubernetes: KubernetesConfig{
			ExcludeNamespaces: []string{
				"kube-system",
				"kube-node-lease",
			},
		},
		History: HistoryConfig{
			Period:    "14d",
			Timeframe: "30m",
		},
		Strategy: StrategyConfig{
			Name:          "simple",
			CPUPercentile: 0.99,
			MemoryBuffer:  1.15,
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	period, err := prommodel.ParseDuration(c.History.Period)
	if err != nil {
		return fmt.Errorf("history period %q: %w", c.History.Period, err)
	}
	if period <= 0 {
		return fmt.Errorf("history period must be positive, got %v", period)
	}

	timeframe, err := prommodel.ParseDuration(c.History.Timeframe)
	if err != nil {
		return fmt.Errorf("history timeframe %q: %w", c.History.Timeframe, err)
	}
	// Anything under a minute truncates to a zero query step.
	if time.Duration(timeframe) < time.Minute {
		return fmt.Errorf("history timeframe must be at least 1m, got %v", timeframe)
	}
	if time.Duration(timeframe) > time.Duration(period) {
		return fmt.Errorf("history timeframe %v exceeds period %v", timeframe, period)
	}

	if c.Strategy.CPUPercentile <= 0 || c.Strategy.CPUPercentile > 1.0 {
		return fmt.Errorf("cpu_percentile must be in (0, 1.0], got %v", c.Strategy.CPUPercentile)
	}
	if c.Strategy.MemoryBuffer < 1.0 {
		return fmt.Errorf("memory_buffer must be >= 1.0, got %v", c.Strategy.MemoryBuffer)
	}
	if c.Strategy.Name != "simple" {
		return fmt.Errorf("strategy must be simple, got %q", c.Strategy.Name)
	}

	validFormats := map[string]bool{"table": true, "json": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output format must be table or json, got %q", c.Output.Format)
	}
	return nil
}
