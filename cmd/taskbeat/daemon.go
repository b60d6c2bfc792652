package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/taskbeat/internal/activity"
	"github.com/fentz26/taskbeat/internal/config"
	"github.com/fentz26/taskbeat/internal/logger"
	"github.com/fentz26/taskbeat/internal/server"
	"github.com/fentz26/taskbeat/internal/store"
	"github.com/fentz26/taskbeat/internal/sweeper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the taskbeat daemon",
	Long:  `Starts the taskbeat daemon which provides the HTTP API for task and statistics queries.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromHome()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	logCfg := logger.DefaultConfig(cfg.LogEnv)
	if cfg.LogLevel != "" {
		logCfg.Level = cfg.LogLevel
	}
	if err := logger.Init(logCfg); err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.Named("daemon")

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("database close error", zap.Error(err))
		}
	}()

	act := activity.NewLogger(s)
	service := server.NewService(s, act)
	srv := server.NewServer(service, cfg.Listen)
	srv.SetHeatmapDefault(cfg.HeatmapDays)

	// Deferred after the store close so the sweeper stops first.
	sw := sweeper.New(s, act, sweeper.DefaultInterval)
	sw.Start()
	defer sw.Stop()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		err := srv.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			log.Error("server error", zap.Error(err))
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}

	log.Info("shutdown complete")
	return nil
}
