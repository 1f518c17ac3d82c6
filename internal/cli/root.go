package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/hivera/internal/control"
	"github.com/vietddude/hivera/internal/core/config"
)

var (
	cfgPath      string
	isDebug      bool
	runOnce      bool
	accountsFile string
	logFile      string

	logCloser io.Closer = io.NopCloser(nil)
)

var rootCmd = &cobra.Command{
	Use:   "hivera",
	Short: "Hivera multi-account contribution bot",
	Long: `Hivera authenticates each configured account against the rewards API,
submits a contribution per account every cycle and waits 30 seconds (or 15
minutes after a cycle with no success) before the next pass.`,
	Run: runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run contribution cycles (default command)",
	Run:   runBot,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (defaults apply when missing)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&accountsFile, "accounts", "", "accounts file, overrides accounts.file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file, overrides logging.file")

	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().BoolVar(&runOnce, "once", false, "perform a single cycle and exit")
	}
	rootCmd.AddCommand(runCmd)
}

// loadConfig reads .env and the config file, then initializes logging.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if accountsFile != "" {
		cfg.Accounts.File = accountsFile
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	switch {
	case isDebug || cfg.Logging.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Logging.Level == "error":
		slogLevel = slog.LevelError
	}

	closer, err := initLogger(slogLevel, cfg.Logging.File)
	if err != nil {
		slog.Warn("Logging to console only", "file", cfg.Logging.File, "error", err)
	}
	logCloser = closer
	return cfg
}

func runBot(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if runOnce {
		once := false
		cfg.Engine.Continuous = &once
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Bot
	app, err := control.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize bot", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = app.Close()
		_ = logCloser.Close()
	}()

	slog.Info("Bot started", "config", cfgPath, "source", cfg.Accounts.Source)

	if err := app.Run(ctx); err != nil {
		slog.Error("Bot stopped with error", "error", err)
		_ = app.Close()
		_ = logCloser.Close()
		os.Exit(1)
	}
	slog.Info("Bot stopped gracefully")
}
