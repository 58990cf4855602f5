package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/NeatNerdPrime/bluedoc/internal/bootstrap"
	"github.com/NeatNerdPrime/bluedoc/internal/mailer"
	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	"github.com/NeatNerdPrime/bluedoc/pkg/config"
	"github.com/NeatNerdPrime/bluedoc/pkg/db"
	"github.com/NeatNerdPrime/bluedoc/pkg/idempotency"
	"github.com/NeatNerdPrime/bluedoc/pkg/instance"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
	"github.com/NeatNerdPrime/bluedoc/pkg/pubsub"
	"github.com/NeatNerdPrime/bluedoc/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "instance": instance.GetID()})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []func() error
	defer func() {
		// Close in reverse order: mail queue before pubsub, pubsub before redis and the database.
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	closers = append(closers, dbClient.Close)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	closers = append(closers, redisClient.Close)

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, true, logg)
	if err != nil {
		return err
	}
	closers = append(closers, psClient.Close)

	var transport mailer.Transport
	if publisher := psClient.MailPublisher(); publisher != nil {
		pubsubTransport, err := mailer.NewPubSubTransport(publisher)
		if err != nil {
			return err
		}
		transport = pubsubTransport
	} else {
		logg.Warn(ctx, "mail topic not configured, composed mail is logged only")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	stack, err := bootstrap.Build(bootstrap.Params{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient.DB(),
		Cache:         redisClient,
		MailTransport: transport,
		Registerer:    registry,
	})
	if err != nil {
		return err
	}
	closers = append(closers, stack.Close)

	guard, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		return err
	}
	consumer, err := notifications.NewConsumer(stack.Service, psClient.EventsSubscription(), guard, stack.Metrics, logg)
	if err != nil {
		return err
	}

	svc, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   psClient,
		Consumer: consumer,
		Gatherer: registry,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting notification worker")
	return svc.Run(ctx)
}
