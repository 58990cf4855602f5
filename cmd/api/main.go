package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/NeatNerdPrime/bluedoc/api/controllers"
	"github.com/NeatNerdPrime/bluedoc/api/routes"
	"github.com/NeatNerdPrime/bluedoc/internal/bootstrap"
	"github.com/NeatNerdPrime/bluedoc/internal/mailer"
	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	"github.com/NeatNerdPrime/bluedoc/pkg/auth"
	"github.com/NeatNerdPrime/bluedoc/pkg/config"
	"github.com/NeatNerdPrime/bluedoc/pkg/db"
	"github.com/NeatNerdPrime/bluedoc/pkg/instance"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
	"github.com/NeatNerdPrime/bluedoc/pkg/migrate"
	"github.com/NeatNerdPrime/bluedoc/pkg/pubsub"
	"github.com/NeatNerdPrime/bluedoc/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	mintServiceToken := flag.Bool("mint-service-token", false, "print a service token for the internal track endpoint and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	if *mintServiceToken {
		token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{Role: auth.RoleService})
		if err != nil {
			logg.Error(context.Background(), "failed to mint service token", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	checks := []controllers.ReadinessCheck{{Name: "database", Pinger: dbClient}}

	var cache notifications.UnreadCache
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cache = redisClient
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	} else {
		logg.Warn(ctx, "redis not configured, unread counts are not cached")
	}

	var transport mailer.Transport
	if cfg.GCP.ProjectID != "" && cfg.PubSub.MailTopic != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, false, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		pubsubTransport, err := mailer.NewPubSubTransport(psClient.MailPublisher())
		if err != nil {
			logg.Error(ctx, "failed to create mail transport", err)
			os.Exit(1)
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
		Cache:         cache,
		MailTransport: transport,
		Registerer:    registry,
	})
	if err != nil {
		logg.Error(ctx, "failed to wire notifications", err)
		os.Exit(1)
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logg.Error(context.Background(), "error draining mail queue", err)
		}
	}()

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, stack.Service, registry, checks...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
