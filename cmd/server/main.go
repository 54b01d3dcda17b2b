package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"portfolio-mainframe/internal/app"
	"portfolio-mainframe/internal/config"
	"portfolio-mainframe/internal/observability"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		// logger is not built yet; config errors go to stderr
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	cfg := config.Load()
	logger := observability.NewLogger(observability.LoggerOptions{File: cfg.LogFile})
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	a, err := app.Build(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		os.Exit(1)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go a.SweepSessions(sweepCtx, time.Minute, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.NewRouter(a.Handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("mainframe listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return
	}
	logger.Info("server shutdown complete")
}
