package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tgbridge/pkg/bridge"
	"tgbridge/pkg/config"
	"tgbridge/pkg/logger"
	"tgbridge/pkg/staging"
	"tgbridge/pkg/telegram/mtproto"
	"tgbridge/pkg/telegram/session"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST bridge",
	Long:  "Connects to Telegram with the configured user session and serves the REST API until interrupted.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = args

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)
	log := slog.Default().With("component", "cmd.serve")

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cred, err := session.Open(runCtx, cfg.Telegram)
	if err != nil {
		log.Error("Failed to open Telegram session", "error", err)
		return err
	}
	log.Info("Telegram session loaded", "source", cred.Source, "path", cred.Path)

	client, err := mtproto.New(cfg.Telegram, cred.Storage, logger.NewZap(appLogger), log)
	if err != nil {
		log.Error("Failed to configure Telegram client", "error", err)
		return err
	}
	client.Preload(cred.Peers)
	if err := client.Start(runCtx); err != nil {
		log.Error("Failed to connect to Telegram", "error", err)
		return err
	}
	defer func() {
		if err := client.Close(); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("Telegram client stopped with error", "error", err)
		}
	}()

	uploads, err := staging.NewArea(cfg.Server.UploadDir)
	if err != nil {
		log.Error("Failed to prepare upload directory", "error", err)
		return err
	}

	svc, err := bridge.NewService(cfg, client, uploads, log)
	if err != nil {
		log.Error("Failed to initialize bridge service", "error", err)
		return err
	}

	log.Info("Bridge starting", "address", cfg.Server.Address(), "uploads", uploads.Root())
	if err := svc.Run(runCtx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		log.Error("Bridge runtime failed", "error", err)
		return err
	}

	return nil
}
