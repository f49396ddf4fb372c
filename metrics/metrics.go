// Package metrics exposes the service's Prometheus collectors and the HTTP
// server that serves them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer owns a dedicated Prometheus registry and the HTTP server
// exposing it on /metrics.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server

	workOrders *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New registers the work-order collectors under the given namespace. An empty
// listenAddr yields a server that records but is never started.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	if namespace == "" {
		return nil, errors.New("metrics namespace must not be empty")
	}
	namespace = strings.ReplaceAll(namespace, "-", "_")

	m := &MetricsServer{
		registry: prometheus.NewRegistry(),
		workOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workorder_requests_total",
			Help:      "work orders processed, by last reached stage and outcome",
		}, []string{"stage", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workorder_duration_seconds",
			Help:      "time spent processing a single work order",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{
		m.workOrders,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	m.srv = &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return m, nil
}

// ObserveWorkOrder records the outcome of one processed work order.
func (m *MetricsServer) ObserveWorkOrder(stage, outcome string, elapsed time.Duration) {
	m.workOrders.WithLabelValues(stage, outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsServer) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
