package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramUpdatesTotal,
		telegramRateLimitedTotal,
		telegramSendFailuresTotal,
	)
}

var (
	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Incoming updates by kind (message, callback, contact, web_app, command).",
		},
		[]string{"kind"},
	)

	telegramRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of updates dropped by the per-user rate limit.",
		},
	)

	telegramSendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_send_failures_total",
			Help: "Outbound Telegram calls that failed after retries, by error kind.",
		},
		[]string{"kind"},
	)
)

func IncUpdate(kind string) {
	telegramUpdatesTotal.WithLabelValues(norm(kind)).Inc()
}

func IncRateLimited() {
	telegramRateLimitedTotal.Inc()
}

func IncSendFailure(kind string) {
	telegramSendFailuresTotal.WithLabelValues(norm(kind)).Inc()
}
