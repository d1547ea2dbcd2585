// Package metrics expõe os coletores Prometheus do serviço.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "handson"

var (
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total de requisições HTTP por rota e status",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duração das requisições HTTP",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// MirrorOutcome conta o desfecho do espelhamento de is_active no clipping:
	// mirrored, compensated, pending, reconciled.
	MirrorOutcome = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_mirror_total",
			Help:      "Desfecho do espelhamento de registros no banco clipping",
		},
		[]string{"outcome"},
	)

	PendingMirrors = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "register_pending_mirrors",
		Help:      "Espelhamentos pendentes aguardando reconciliação",
	})
)

// ObserveRequest registra contagem e duração de uma requisição.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	RequestCounter.WithLabelValues(method, route, code).Inc()
	RequestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}

// Handler serve o registro padrão em /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
