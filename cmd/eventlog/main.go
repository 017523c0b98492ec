// Command eventlog tails the session event queue and writes each event to the
// configured log.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pdfchat/internal/config"
	"pdfchat/internal/pkg/logger"
	rabbitmqClient "pdfchat/internal/platform/rabbitmq"
	"pdfchat/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if cfg.RabbitMQ.URL == "" {
		log.Fatalf("rabbitmq.url is empty, nothing to consume")
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.File, cfg.App.Env == "prod")
	if err != nil {
		log.Fatalf("create logger failed: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.EventQueue)
	if err != nil {
		zl.Fatal("connect rabbitmq failed", zap.Error(err))
	}
	defer conn.Close()

	w := worker.NewEventLogWorker(conn, zl, cfg.RabbitMQ.EventQueue)
	if err := w.Start(ctx); err != nil {
		zl.Fatal("start event worker failed", zap.Error(err))
	}
	zl.Info("consuming session events", zap.String("queue", cfg.RabbitMQ.EventQueue))

	<-ctx.Done()
	w.Close()
}
