package livesvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscriptionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "classesx",
		Subsystem: "live",
		Name:      "subscriptions",
		Help:      "Number of open live subscriptions.",
	})

	publishedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classesx",
		Subsystem: "live",
		Name:      "published_total",
		Help:      "Number of change events published, by broker.",
	}, []string{"broker"})
)
