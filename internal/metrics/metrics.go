package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace for all evently metrics
const namespace = "evently"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels (always set to 1)
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit"},
)

// Registrations counts registration attempts by outcome
// (success, conflict, capacity_exceeded, not_found, contention, error)
var Registrations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Event registration attempts by outcome",
	},
	[]string{"result"},
)

// EventsCreated counts successfully created events
var EventsCreated = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_created_total",
		Help:      "Total number of events created",
	},
)

// TriggersScheduled counts notification triggers placed on the timeline
var TriggersScheduled = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "triggers_scheduled_total",
		Help:      "Notification triggers scheduled, by kind (reminder, feedback)",
	},
	[]string{"kind"},
)

// TriggersSkipped counts triggers dropped without sending
// (fire time already passed, event deleted before firing)
var TriggersSkipped = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "triggers_skipped_total",
		Help:      "Notification triggers skipped without sending, by kind and reason",
	},
	[]string{"kind", "reason"},
)

// EmailsSent counts outbound email attempts by kind and result
var EmailsSent = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Outbound email attempts by kind (reminder, feedback) and result (ok, error)",
	},
	[]string{"kind", "result"},
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Init records build information on the AppInfo gauge.
func Init(version, commit string) {
	AppInfo.WithLabelValues(version, commit).Set(1)
}

// Handler serves the registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
