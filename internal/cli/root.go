// Package cli provides the command-line interface for the monitoring application.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockwatch/internal/alertlog"
	"stockwatch/internal/config"
	"stockwatch/internal/history"
	"stockwatch/internal/logging"
	"stockwatch/internal/marketdata"
	"stockwatch/internal/marketdata/edgar"
	"stockwatch/internal/marketdata/fred"
	"stockwatch/internal/marketdata/yahoo"
	"stockwatch/internal/monitor"
	"stockwatch/internal/notify"
	"stockwatch/internal/watchlist"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-02-01"
)

// App holds the application dependencies.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Market     marketdata.Provider
	Insider    marketdata.InsiderSource
	Econ       marketdata.EconSource
	History    *history.Store
	Watchlists *watchlist.Store
	Alerts     *alertlog.Log
	Notifier   *notify.Multi
}

// NewRootCmd creates the root command and the shared application state.
// The caller owns Close on the returned App.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) (*cobra.Command, *App) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.Market = yahoo.New(yahoo.Options{
		UserAgent:     cfg.Fetch.UserAgent,
		Timeout:       cfg.FetchTimeout(),
		RatePerSecond: cfg.Fetch.RatePerSecond,
		Burst:         cfg.Fetch.Burst,
	}, logger)

	app.Insider = edgar.New(edgar.Options{
		UserAgent: cfg.Credentials.EDGAR.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, logger)

	// The rates tracker needs a FRED key; everything else works without one.
	if cfg.Credentials.FRED.APIKey != "" {
		app.Econ = fred.New(fred.Options{
			APIKey:  cfg.Credentials.FRED.APIKey,
			Timeout: cfg.FetchTimeout(),
		}, logger)
	} else {
		logger.Debug().Msg("FRED API key not set, rates tracker unavailable")
	}

	store, err := history.New(cfg.HistoryDBPath())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open history archive, lookbacks will refetch")
	} else {
		app.History = store
	}

	app.Watchlists = watchlist.NewStore(cfg.WatchlistDir(), cfg.Watchlist.Default, logger)
	app.Alerts = alertlog.New(cfg.AlertLogPath(), cfg.Alerts.MaxEntries, logger)
	app.Notifier = notify.NewFromConfig(cfg.Notifications, cfg.UI.ColorEnabled)

	rootCmd := &cobra.Command{
		Use:   "stockwatch",
		Short: "Stockwatch - market monitoring CLI",
		Long: `Stockwatch watches a set of tickers for dividend, earnings, options,
correlation, insider and rate changes.

Each tracker fetches fresh data, rebuilds its snapshot, compares it against
the cached baseline and raises alerts when fixed thresholds are crossed.
Snapshots are cached per tracker so repeat runs inside the staleness window
serve from disk.

Use 'stockwatch help <command>' for more information about a command.
Use 'stockwatch examples' to see common workflows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stockwatch)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
	rootCmd.AddCommand(newDividendsCmd(app))
	rootCmd.AddCommand(newEarningsCmd(app))
	rootCmd.AddCommand(newOptionsCmd(app))
	rootCmd.AddCommand(newCorrelationCmd(app))
	rootCmd.AddCommand(newInsiderCmd(app))
	rootCmd.AddCommand(newRatesCmd(app))
	rootCmd.AddCommand(newWatchlistCmd(app))
	rootCmd.AddCommand(newAlertsCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
	rootCmd.AddCommand(newMarketCmd(app))
	rootCmd.AddCommand(newExamplesCmd())

	return rootCmd, app
}

// Close releases resources held by the app.
func (a *App) Close() {
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close history archive")
		}
	}
}

// monitorNotifier adapts the configured notifier for the monitor.
// Returning the struct pointer directly would hand the monitor a
// non-nil interface wrapping a nil pointer when notifications are off.
func (a *App) monitorNotifier() monitor.Notifier {
	if a.Notifier == nil {
		return nil
	}
	return a.Notifier
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Stockwatch v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.ConfigDir()})
			} else {
				output.Println(app.Config.ConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Fetch")
	output.Printf("  Timeout:         %ds\n", cfg.Fetch.TimeoutSeconds)
	output.Printf("  Workers:         %d\n", cfg.Fetch.Workers)
	output.Printf("  Rate:            %.1f req/s (burst %d)\n", cfg.Fetch.RatePerSecond, cfg.Fetch.Burst)
	output.Printf("  Lookback:        %d days\n", cfg.Fetch.LookbackDays)
	output.Println()

	output.Bold("Cache staleness windows")
	output.Printf("  Dividends:       %dh\n", cfg.Cache.DividendsTTLHours)
	output.Printf("  Earnings:        %dh\n", cfg.Cache.EarningsTTLHours)
	output.Printf("  Options:         %dh\n", cfg.Cache.OptionsTTLHours)
	output.Printf("  Correlation:     %dh\n", cfg.Cache.CorrelationTTLHours)
	output.Printf("  Insider:         %dh\n", cfg.Cache.InsiderTTLHours)
	output.Printf("  Rates:           %dh\n", cfg.Cache.RatesTTLHours)
	output.Println()

	output.Bold("Alerts")
	output.Printf("  Log cap:         %d entries\n", cfg.Alerts.MaxEntries)
	output.Printf("  Log path:        %s\n", cfg.AlertLogPath())
	output.Println()

	output.Bold("Watchlist")
	output.Printf("  Default:         %v\n", cfg.Watchlist.Default)
	output.Printf("  Directory:       %s\n", cfg.WatchlistDir())
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:         %v\n", cfg.Notifications.Enabled)
	output.Printf("  Min severity:    %s\n", cfg.Notifications.MinSeverity)
	output.Printf("  Webhook:         %v\n", cfg.Notifications.Webhook.Enabled)
	output.Println()

	output.Bold("Credentials")
	output.Printf("  FRED API key:    %s\n", maskValue(cfg.Credentials.FRED.APIKey))
	output.Printf("  EDGAR contact:   %s\n", valueOrDefault(cfg.Credentials.EDGAR.UserAgent, "(library default)"))

	return nil
}

func maskValue(v string) string {
	if v == "" {
		return "(not set)"
	}
	if len(v) <= 4 {
		return "****"
	}
	return v[:4] + "****"
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
