package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	visadirectsdk "visadirect-sdk-go"
	"visadirect-sdk-go/config"
	"visadirect-sdk-go/pkg/logger"
)

var Cfg config.ClientConfig

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := logger.Init(logger.GetEnv()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Dir(filename)
	configPath := config.Path(root).Join("..", "..", "config.toml")

	if err := config.Load(configPath, &Cfg); err != nil {
		logger.Warn("no config.toml found, continuing with environment-only configuration", zap.Error(err))
		if err := cleanenv.ReadEnv(&Cfg); err != nil {
			return fmt.Errorf("failed to read environment configuration: %w", err)
		}
	}

	logger.Info("building Visa Direct client", zap.String("environment", Cfg.Environment))

	ctx := context.Background()
	client, err := visadirectsdk.New(ctx, Cfg, logger.Log)
	if err != nil {
		return fmt.Errorf("failed to build Visa Direct client: %w", err)
	}

	receipt, err := client.NewPayout().
		WithFundingInternal(true, "demo-confirmation-ref").
		ToCardDirect("demo-pan-token").
		ForAmount("USD", 2500).
		WithIdempotencyKey("payoutdemo-" + uuid.New().String()).
		Execute(ctx)
	if err != nil {
		return fmt.Errorf("payout failed: %w", err)
	}

	logger.Info("payout dispatched", zap.String("payoutId", receipt.PayoutID), zap.String("status", receipt.Status))
	return nil
}
