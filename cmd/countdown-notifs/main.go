// Package main is the entry point for the countdown-notifs CLI.
//
// Usage:
//
//	countdown-notifs local                      # desktop alerts
//	countdown-notifs discord -c config.json     # Discord webhook with role mentions
//	countdown-notifs version
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luckytyphlosion/countdown-notifs/internal/config"
	"github.com/luckytyphlosion/countdown-notifs/internal/daemon"
	"github.com/luckytyphlosion/countdown-notifs/internal/logging"
	"github.com/luckytyphlosion/countdown-notifs/internal/metrics"
	"github.com/luckytyphlosion/countdown-notifs/internal/notify"
	"github.com/luckytyphlosion/countdown-notifs/internal/status"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

const (
	modeLocal   = "local"
	modeDiscord = "discord"
)

type options struct {
	configPath   string
	settingsPath string
	envFile      string
	statusURL    string
	logLevel     string
	logFormat    string
	logFile      string
	metricsPort  int
	once         bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&options{})
}

// buildRootCmd binds the flags to opts.
func buildRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countdown-notifs <local|discord>",
		Short: "Announce changes of the Countdown online status",
		Long: `countdown-notifs polls the Countdown status page and announces every change
of the published status, either as a desktop alert (local) or as a Discord
webhook message mentioning the roles subscribed to the new player count (discord).`,
		ValidArgs:    []string{modeLocal, modeDiscord},
		Args:         cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "config.json", "Discord config file (roles, webhook_url)")
	f.StringVar(&opts.settingsPath, "settings", "", "optional runtime settings file (YAML or JSON)")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading COUNTDOWN_* variables")
	f.StringVar(&opts.statusURL, "status-url", "", "override the status page URL")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "", "terminal log format (json, console)")
	f.StringVar(&opts.logFile, "log-file", "", "also write logs to this file")
	f.IntVar(&opts.metricsPort, "metrics-port", 0, "serve /metrics and /status on this port")
	f.BoolVar(&opts.once, "once", false, "run a single poll cycle and exit")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "countdown-notifs %s (%s)\n", version, commit)
		},
	})
	return cmd
}

// loadSettings applies defaults < settings file < env < flags.
func loadSettings(cmd *cobra.Command, opts *options) (*config.Settings, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}
	s := config.DefaultSettings()
	if opts.settingsPath != "" {
		loaded, err := config.LoadSettingsFromFile(opts.settingsPath)
		if err != nil {
			return nil, fmt.Errorf("failed loading settings: %w", err)
		}
		s = loaded
	}
	if err := config.ApplyEnvOverrides(s); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("status-url") {
		s.StatusURL = opts.statusURL
	}
	if flags.Changed("log-level") {
		s.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		s.LogFormat = opts.logFormat
	}
	if flags.Changed("log-file") {
		s.LogFile = opts.logFile
	}
	if flags.Changed("metrics-port") {
		s.MetricsEnabled = true
		s.MetricsPort = opts.metricsPort
	}
	return s, nil
}

func buildNotifier(mode string, opts *options) (notify.Notifier, error) {
	switch mode {
	case modeLocal:
		return notify.NewLocal(os.Stdout), nil
	case modeDiscord:
		cfg, err := config.LoadDiscordConfig(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed loading discord config: %w", err)
		}
		return notify.NewDiscord(cfg)
	default:
		return nil, fmt.Errorf("invalid mode %q: must be %q or %q", mode, modeLocal, modeDiscord)
	}
}

// startMetrics serves metrics in the background when enabled
func startMetrics(s *config.Settings) {
	if !s.MetricsEnabled {
		return
	}
	go func() {
		addr := fmt.Sprintf(":%d", s.MetricsPort)
		logging.Get().Info().Str("addr", addr).Msg("starting metrics server")
		if err := http.ListenAndServe(addr, metrics.NewMux()); err != nil {
			logging.Get().Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

func run(cmd *cobra.Command, mode string, opts *options) error {
	s, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}
	if err := s.Check(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	cleanup, err := logging.Init(logging.Options{Level: s.LogLevel, Format: s.LogFormat, File: s.LogFile})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	n, err := buildNotifier(mode, opts)
	if err != nil {
		return err
	}

	startMetrics(s)

	d, err := daemon.New(s, status.NewFetcher(s.StatusURL, s.RequestTimeout), n)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.once {
		wait, err := d.RunOnce(ctx)
		if err != nil {
			return err
		}
		logging.Get().Info().Dur("next_poll", wait).Msg("run-once: single poll cycle complete")
		return nil
	}

	err = d.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logging.Get().Info().Msg("shutdown signal received, exiting")
		return nil
	}
	return err
}
