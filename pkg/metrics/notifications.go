package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch outcomes recorded per TrackNotification call.
const (
	OutcomeCreated     = "created"
	OutcomeUnknownType = "unknown_type"
	OutcomeSelf        = "self"
	OutcomeNoRecipient = "no_recipient"
	OutcomeDenied      = "denied"
	OutcomeError       = "error"
)

// Mail queue outcomes.
const (
	MailQueued  = "queued"
	MailDropped = "dropped"
	MailSent    = "sent"
	MailFailed  = "failed"
)

// NotificationMetrics records dispatch and mail pipeline activity.
type NotificationMetrics struct {
	dispatch *prometheus.CounterVec
	duration *prometheus.HistogramVec
	mail     *prometheus.CounterVec
	events   *prometheus.CounterVec
}

// NewNotificationMetrics registers the collectors on reg. A nil registerer yields a no-op recorder.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	dispatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_dispatch_total",
		Help: "Notification dispatch attempts by notify type and outcome.",
	}, []string{"notify_type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifications_dispatch_duration_seconds",
		Help:    "Time spent tracking a notification for one recipient.",
		Buckets: prometheus.DefBuckets,
	}, []string{"notify_type"})
	mail := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_mail_total",
		Help: "Notification mail pipeline outcomes.",
	}, []string{"outcome"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_events_total",
		Help: "Consumed notification events by result.",
	}, []string{"result"})
	reg.MustRegister(dispatch, duration, mail, events)
	return &NotificationMetrics{
		dispatch: dispatch,
		duration: duration,
		mail:     mail,
		events:   events,
	}
}

// IncDispatch counts one dispatch outcome.
func (m *NotificationMetrics) IncDispatch(notifyType, outcome string) {
	if m == nil || m.dispatch == nil {
		return
	}
	m.dispatch.WithLabelValues(normalizeLabel(notifyType), normalizeLabel(outcome)).Inc()
}

func (m *NotificationMetrics) ObserveDispatch(notifyType string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(notifyType)).Observe(d.Seconds())
}

func (m *NotificationMetrics) IncMail(outcome string) {
	if m == nil || m.mail == nil {
		return
	}
	m.mail.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *NotificationMetrics) IncEvent(result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
