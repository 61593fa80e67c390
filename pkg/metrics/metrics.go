// Package metrics holds the prometheus collectors for the data layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DocumentWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickmsg_document_writes_total",
		Help: "Whole-document writes, by storage key.",
	}, []string{"key"})

	Migrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickmsg_migrations_total",
		Help: "Template documents upgraded, by source schema version.",
	}, []string{"from"})

	AlarmsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickmsg_alarms_scheduled_total",
		Help: "SET_ALARM requests accepted by the scheduler.",
	})

	AlarmsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickmsg_alarms_cleared_total",
		Help: "CLEAR_ALARM requests accepted by the scheduler.",
	})

	AlarmsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickmsg_alarms_fired_total",
		Help: "Alarms that moved a reminder from active to fired.",
	})

	RemindersCleaned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickmsg_reminders_cleaned_total",
		Help: "Reminders removed by cleanup, by reason.",
	}, []string{"reason"})

	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickmsg_notifications_failed_total",
		Help: "Notifications the notifier could not deliver.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
