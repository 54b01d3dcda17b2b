package app

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"portfolio-mainframe/handler"
	"portfolio-mainframe/internal/config"
	"portfolio-mainframe/internal/integrations/gemini"
	"portfolio-mainframe/internal/integrations/paramstore"
	"portfolio-mainframe/internal/persona"
	"portfolio-mainframe/internal/repository"
	"portfolio-mainframe/internal/usecase"
)

// App holds the wired components shared by the Lambda and HTTP entrypoints.
type App struct {
	Handler *handler.Handler
	Store   *repository.Store
}

// Build resolves the API key and wires every component. AWS config is only
// loaded when the key has to come from SSM.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if cfg.NeedsParamStore() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("app: create SSM client: %w", err)
		}
		if err := cfg.ResolveAPIKey(ctx, ssmClient); err != nil {
			return nil, err
		}
	}
	if cfg.APIKey == "" {
		logger.Warn("gemini api key is empty; generation will report connection loss")
	}
	return Wire(cfg, logger)
}

// Wire builds the components from an already resolved config.
func Wire(cfg config.Config, logger *zap.Logger) (*App, error) {
	client, err := gemini.NewClient(cfg.APIKey,
		gemini.WithBaseURL(cfg.BaseURL),
		gemini.WithModel(cfg.Model),
		gemini.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("app: create gemini client: %w", err)
	}

	profile := persona.Default()
	store, err := repository.New(client, profile, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("app: create session store: %w", err)
	}

	svc, err := usecase.NewPortfolioService(store, profile, cfg.MaxInputLength, logger)
	if err != nil {
		return nil, fmt.Errorf("app: create portfolio service: %w", err)
	}

	h, err := handler.NewHandler(svc, logger)
	if err != nil {
		return nil, fmt.Errorf("app: create handler: %w", err)
	}
	return &App{Handler: h, Store: store}, nil
}
