package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jarrod640-svg/pdfswift/internal/app/receiptsender"
	"github.com/jarrod640-svg/pdfswift/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting receipt sender", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := receiptsender.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize receipt sender", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("receipt sender stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("receipt sender stopped gracefully")
}
