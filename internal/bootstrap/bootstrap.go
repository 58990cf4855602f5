// Package bootstrap assembles the notification dispatch core from its infrastructure clients.
package bootstrap

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/NeatNerdPrime/bluedoc/internal/directory"
	"github.com/NeatNerdPrime/bluedoc/internal/mailer"
	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	"github.com/NeatNerdPrime/bluedoc/pkg/config"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
	"github.com/NeatNerdPrime/bluedoc/pkg/metrics"
	"github.com/NeatNerdPrime/bluedoc/pkg/render"
)

// Params carries the clients built by a cmd entrypoint. Cache, MailTransport and Registerer are optional.
type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            *gorm.DB
	Cache         notifications.UnreadCache
	MailTransport mailer.Transport
	Registerer    prometheus.Registerer
}

// Stack is a started notification service and the mail dispatcher behind it.
type Stack struct {
	Service    notifications.Service
	Dispatcher *mailer.Dispatcher
	Metrics    *metrics.NotificationMetrics
}

// Build wires the directory, resolver, gate and formatter into a service and starts the mail workers.
// Without a transport composed mail is logged instead of published.
func Build(p Params) (*Stack, error) {
	if p.Config == nil {
		return nil, errors.New("config is required")
	}
	if p.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if p.DB == nil {
		return nil, errors.New("database is required")
	}
	cfg := p.Config

	dir, err := directory.New(p.DB)
	if err != nil {
		return nil, err
	}
	urls, err := directory.NewURLs(cfg.App.BaseURL())
	if err != nil {
		return nil, err
	}
	resolver, err := notifications.NewResolver(dir, urls, render.Simple{})
	if err != nil {
		return nil, err
	}
	gate, err := notifications.NewGate(dir, p.Logger)
	if err != nil {
		return nil, err
	}
	formatter, err := notifications.NewFormatter(cfg.App.BaseURL())
	if err != nil {
		return nil, err
	}

	m := metrics.NewNotificationMetrics(p.Registerer)

	composer, err := mailer.NewComposer(cfg.Mail.FromAddress, cfg.Mail.FromName, cfg.App.Domain())
	if err != nil {
		return nil, err
	}
	transport := p.MailTransport
	if transport == nil {
		transport = mailer.NewLogTransport(p.Logger)
	}
	dispatcher, err := mailer.NewDispatcher(cfg.Dispatch, composer, transport, m, p.Logger)
	if err != nil {
		return nil, err
	}

	svc, err := notifications.NewService(notifications.ServiceParams{
		Repo:      notifications.NewRepository(p.DB),
		Users:     dir,
		Resolver:  resolver,
		Gate:      gate,
		Formatter: formatter,
		Mailer:    dispatcher,
		Cache:     p.Cache,
		Metrics:   m,
		Logger:    p.Logger,
	})
	if err != nil {
		return nil, err
	}

	dispatcher.Start()
	return &Stack{Service: svc, Dispatcher: dispatcher, Metrics: m}, nil
}

// Close drains the mail queue.
func (s *Stack) Close() error {
	if s == nil || s.Dispatcher == nil {
		return nil
	}
	return s.Dispatcher.Close()
}
