package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NeatNerdPrime/bluedoc/api/controllers"
	"github.com/NeatNerdPrime/bluedoc/api/middleware"
	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	"github.com/NeatNerdPrime/bluedoc/pkg/auth"
	"github.com/NeatNerdPrime/bluedoc/pkg/config"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
)

// NewRouter mounts the notification API. A nil gatherer leaves /metrics unmounted.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	notificationsService notifications.Service,
	gatherer prometheus.Gatherer,
	checks ...controllers.ReadinessCheck,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(auth.RoleUser, logg))

		r.Get("/", controllers.ListNotifications(notificationsService, logg))
		r.Get("/unread-count", controllers.UnreadNotificationCount(notificationsService, logg))
		r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		r.Post("/read-targets", controllers.ReadNotificationTargets(notificationsService, logg))
		r.Get("/{notificationId}", controllers.GetNotification(notificationsService, logg))
		r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
	})

	r.Route("/api/internal/v1/notifications", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(auth.RoleService, logg))

		r.Post("/track", controllers.TrackNotification(notificationsService, logg))
	})

	return r
}
