package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"flowcast/internal/amqp"
	"flowcast/internal/cli"
	"flowcast/internal/log"
	"flowcast/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("starting flowcast-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	levels := cli.LoadHealthLevels(logger, cfg)

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", "error", err, "url", cfg.AMQPURL)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewMutationWorker(store, levels, cfg.ProjectionWindowDays)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("consuming mutation queue",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		return amqpClient.ConsumeMutations(ctx, func(msg *amqp.MutationMessage) error {
			return w.HandleMutation(ctx, msg)
		})
	})

	g.Go(func() error {
		logger.Info("starting projection checks", "interval", cfg.ProjectInterval.String())
		return w.RunProjectionLoop(ctx, cfg.ProjectInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
