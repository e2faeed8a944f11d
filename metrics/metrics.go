package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	RequestDuration *prometheus.HistogramVec

	ReportBuilds        prometheus.Counter
	ReportBuildFailures prometheus.Counter
	ReportBuildSeconds  prometheus.Histogram
	ReportSuperseded    prometheus.Counter

	OrdersFulfilled *prometheus.CounterVec
	OrdersFailed    *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	reqDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})

	builds := prometheus.NewCounter(prometheus.CounterOpts{Name: "portal_report_builds_total"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "portal_report_build_failures_total"})
	buildSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "portal_report_build_seconds",
		Buckets: prometheus.DefBuckets,
	})
	superseded := prometheus.NewCounter(prometheus.CounterOpts{Name: "portal_report_superseded_total"})

	fulfilled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "portal_orders_fulfilled_total"}, []string{"method"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "portal_orders_failed_total"}, []string{"method"})

	r.MustRegister(reqDuration, builds, failures, buildSeconds, superseded, fulfilled, failed)
	return &Registry{
		reg:                 r,
		RequestDuration:     reqDuration,
		ReportBuilds:        builds,
		ReportBuildFailures: failures,
		ReportBuildSeconds:  buildSeconds,
		ReportSuperseded:    superseded,
		OrdersFulfilled:     fulfilled,
		OrdersFailed:        failed,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
