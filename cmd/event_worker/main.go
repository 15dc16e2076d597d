package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oksasatya/go-ddd-identity/config"
	"github.com/oksasatya/go-ddd-identity/internal/container"
	"github.com/oksasatya/go-ddd-identity/internal/worker"
	"github.com/oksasatya/go-ddd-identity/pkg/helpers"
	"github.com/oksasatya/go-ddd-identity/pkg/mailer/templates"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required for the event worker")
	}
	logger := helpers.NewLogger(cfg.AppName+"-worker", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to build dependencies")
	}
	defer c.Close()

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.WithError(err).Fatal("amqp dial")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.WithError(err).Fatal("amqp channel")
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch between workers
	if err := ch.Qos(16, 0, false); err != nil {
		logger.WithError(err).Fatal("qos")
	}

	notifier := &worker.Notifier{
		Users:   c.Users,
		Sender:  c.MailSender(),
		Brand:   templates.Brand{AppName: cfg.AppName, SupportURL: cfg.SupportURL},
		Geo:     templates.IPAPIResolver{},
		Counter: c.Metrics,
		Logger:  logger,
	}

	queues := map[string]worker.HandlerFunc{
		cfg.RabbitMQEventsQueue: notifier.HandleEvent,
		cfg.RabbitMQEmailQueue:  notifier.HandleEmailJob,
	}
	var wg sync.WaitGroup
	for queue, handle := range queues {
		if err := helpers.DeclareQueue(ch, queue); err != nil {
			logger.WithError(err).Fatal("queue declare")
		}
		msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
		if err != nil {
			logger.WithError(err).WithField("queue", queue).Fatal("consume")
		}
		wg.Add(1)
		go func(queue string, msgs <-chan amqp.Delivery, handle worker.HandlerFunc) {
			defer wg.Done()
			worker.Consume(ctx, msgs, handle, logger)
			logger.WithField("queue", queue).Info("consumer stopped")
		}(queue, msgs, handle)
		logger.WithField("queue", queue).Info("event worker listening")
	}

	if cfg.MetricsEnabled {
		srv := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: c.Metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Warn("metrics server stopped")
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	<-ctx.Done()
	logger.Info("shutting down...")
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("consumers did not stop in time")
	}
}
