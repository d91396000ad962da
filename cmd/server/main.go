package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/mojachat-server/internal/app"
	"github.com/vovakirdan/mojachat-server/internal/config"
	"github.com/vovakirdan/mojachat-server/internal/log"
)

var (
	configFile string
	overrides  config.Config
)

var rootCmd = &cobra.Command{
	Use:           "mojachat-server",
	Short:         "Run the MojaChat room and presence server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "path to config.yaml (default ./config.yaml)")
	flags.StringVar(&overrides.Host, "host", "", "TCP listen host")
	flags.IntVar(&overrides.Port, "port", 0, "TCP listen port")
	flags.StringVar(&overrides.HTTPAddr, "http-addr", "", "status API and WebSocket bridge address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&overrides.DatabasePath, "db", "", "presence journal SQLite path")
}

func run(cmd *cobra.Command, _ []string) error {
	bootstrap := log.New("info")

	cfg, path, err := config.Load(bootstrap, configFile)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(overrides)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr()).Msg("starting mojachat server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
