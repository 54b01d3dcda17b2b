package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"portfolio-mainframe/internal/app"
	"portfolio-mainframe/internal/config"
	"portfolio-mainframe/internal/observability"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	logger := observability.NewLogger(observability.LoggerOptions{File: cfg.LogFile})
	defer func() { _ = logger.Sync() }()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		os.Exit(1)
	}

	lambda.Start(a.Handler.Handle)
}
