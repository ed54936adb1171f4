package permission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricContentRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webgate",
		Subsystem: "permission",
		Name:      "content_requests_total",
		Help:      "Content permission requests received, by kind.",
	}, []string{"kind"})

	metricVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webgate",
		Subsystem: "permission",
		Name:      "verdicts_total",
		Help:      "Verdicts produced, by outcome.",
	}, []string{"verdict"})

	metricUnknownKinds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "webgate",
		Subsystem: "permission",
		Name:      "unknown_kinds_total",
		Help:      "Requests carrying a permission kind outside the known set.",
	})

	metricExceptionChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webgate",
		Subsystem: "permission",
		Name:      "exception_changes_total",
		Help:      "Site exception additions and removals, by operation and category.",
	}, []string{"op", "category"})

	metricExceptionReloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "webgate",
		Subsystem: "permission",
		Name:      "exception_reloads_total",
		Help:      "Session reloads triggered by exception changes.",
	})

	metricPlatformPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "webgate",
		Subsystem: "permission",
		Name:      "platform_requests_pending",
		Help:      "Platform permission round-trips awaiting a reply.",
	})
)
