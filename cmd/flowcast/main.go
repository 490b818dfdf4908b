package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"flowcast/internal/amqp"
	"flowcast/internal/cli"
	"flowcast/internal/core"
	apphttp "flowcast/internal/http"
	"flowcast/internal/log"
	"flowcast/internal/storage"
)

// directSink applies mutations straight to storage. Used when no AMQP URL
// is configured, so a single-process setup works without a broker.
type directSink struct {
	store storage.MutationApplier
}

func (d directSink) EnqueueOverride(ctx context.Context, ov core.RecurrenceOverride) error {
	return d.store.ApplyOverride(ctx, ov)
}

func (d directSink) EnqueueTransaction(ctx context.Context, tx core.Transaction) error {
	return d.store.CreateTransaction(ctx, tx)
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentHTTP)

	cfg := cli.LoadAndValidateConfig(logger)
	levels := cli.LoadHealthLevels(logger, cfg)
	store := cli.InitStore(logger, cfg)
	defer store.Close()

	var sink apphttp.MutationSink
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to initialize AMQP client", "error", err, "url", cfg.AMQPURL)
			os.Exit(1)
		}
		defer client.Close()
		sink = client
		logger.Info("writes go through the mutation queue",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		sink = directSink{store: store}
		logger.Info("no AMQP URL configured, applying writes directly")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Store:           store,
		Sink:            sink,
		Levels:          levels,
		WindowDays:      cfg.ProjectionWindowDays,
		HistoryFoldDays: cfg.HistoryFoldDays,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	})

	logger.Info("starting flowcast server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"window_days", cfg.ProjectionWindowDays)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("server stopped gracefully")
}
