package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rightscope/rightscope/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "rightscope",
	Short: "Resource request recommender for Kubernetes workloads",
	Long: `Rightscope gathers historical per-pod CPU and memory usage from a
Prometheus-compatible metrics backend and recommends resource requests
for your workloads.

The backend is taken from --prometheus-url or auto-discovered from the
cluster; usage history is gathered concurrently per pod over a
configurable lookback window.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogging()
		return loadConfig()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: rightscope.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	// Global flags that map to config
	rootCmd.PersistentFlags().String("prometheus-url", "", "metrics backend URL (skips auto-discovery)")
	rootCmd.PersistentFlags().String("prometheus-auth", "", "Authorization header sent to the backend")
	rootCmd.PersistentFlags().Bool("prometheus-ssl", true, "verify the backend's TLS certificate")
	rootCmd.PersistentFlags().Uint64("prometheus-retries", 3, "transport-level retries per query")
	rootCmd.PersistentFlags().String("kubeconfig", "", "path to kubeconfig file")
	rootCmd.PersistentFlags().String("kube-context", "", "Kubernetes context name")
	rootCmd.PersistentFlags().StringP("namespace", "n", "", "limit analysis to a namespace")
	rootCmd.PersistentFlags().String("discovery-namespace", "", "limit backend discovery to a namespace")
	rootCmd.PersistentFlags().StringSlice("discovery-selector", nil, "ordered label selectors for backend discovery")

	_ = viper.BindPFlag("prometheus.url", rootCmd.PersistentFlags().Lookup("prometheus-url"))
	_ = viper.BindPFlag("prometheus.auth_header", rootCmd.PersistentFlags().Lookup("prometheus-auth"))
	_ = viper.BindPFlag("prometheus.ssl_enabled", rootCmd.PersistentFlags().Lookup("prometheus-ssl"))
	_ = viper.BindPFlag("prometheus.retries", rootCmd.PersistentFlags().Lookup("prometheus-retries"))
	_ = viper.BindPFlag("kubernetes.kubeconfig", rootCmd.PersistentFlags().Lookup("kubeconfig"))
	_ = viper.BindPFlag("kubernetes.context", rootCmd.PersistentFlags().Lookup("kube-context"))
	_ = viper.BindPFlag("kubernetes.namespace", rootCmd.PersistentFlags().Lookup("namespace"))
	_ = viper.BindPFlag("kubernetes.discovery_namespace", rootCmd.PersistentFlags().Lookup("discovery-namespace"))
	_ = viper.BindPFlag("kubernetes.discovery_selectors", rootCmd.PersistentFlags().Lookup("discovery-selector"))
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func loadConfig() error {
	// Start with defaults
	cfg = config.Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rightscope")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.rightscope")
	}

	// Environment variable overrides
	viper.SetEnvPrefix("RIGHTSCOPE")
	viper.AutomaticEnv()

	// Read config file (not an error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	return cfg.Validate()
}
