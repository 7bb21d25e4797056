package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/payroll-engine/internal/app"
	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/queue"
	"github.com/cmlabs-hris/payroll-engine/internal/service/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.App).With(slog.String("component", "worker"))
	slog.SetDefault(logger)

	if !cfg.Queue.Enabled {
		logger.Error("QUEUE_ENABLED must be set to run the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize worker", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	scheduler := container.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	worker := queue.NewWorker(queue.WorkerConfig{
		RedisOpts:   container.RedisClientOpt(),
		Concurrency: cfg.Queue.Concurrency,
		Queues:      map[string]int{settlement.QueueSettlement: 1},
		Logger:      logger,
		Handlers: []queue.TaskHandler{
			{Type: settlement.TaskSettleEvent, Handler: container.Dispatcher.HandleTask},
		},
	})

	logger.Info("Worker running", "concurrency", cfg.Queue.Concurrency)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
}
