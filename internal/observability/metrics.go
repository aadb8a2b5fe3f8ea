package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for the query surface and the
// committed topology snapshot, and provides helpers to wire them into
// HTTP handlers.
type Collector struct {
	gatherer prometheus.Gatherer

	QueryRequests  *prometheus.CounterVec
	QueryDurations *prometheus.HistogramVec

	TopologyNodes    prometheus.Gauge
	TopologyLinks    prometheus.Gauge
	TopologyWarnings prometheus.Gauge
	TopologyReloads  prometheus.Counter
}

// NewCollector registers the engine's Prometheus metrics against the
// provided registerer, defaulting to the global registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "topology_query_requests_total",
		Help: "Total number of handled topology queries, labeled by route and HTTP status code.",
	}, []string{"route", "code"})
	requests, err := registerCounterVec(reg, requests, "topology_query_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "topology_query_duration_seconds",
		Help:    "Topology query latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route"})
	durations, err = registerHistogramVec(reg, durations, "topology_query_duration_seconds")
	if err != nil {
		return nil, err
	}

	nodes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "topology_nodes",
		Help: "Number of nodes in the current snapshot.",
	}), "topology_nodes")
	if err != nil {
		return nil, err
	}
	links, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "topology_links",
		Help: "Number of declared links in the current snapshot.",
	}), "topology_links")
	if err != nil {
		return nil, err
	}
	warnings, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "topology_validation_warnings",
		Help: "Number of validation warnings retained on the current snapshot.",
	}), "topology_validation_warnings")
	if err != nil {
		return nil, err
	}

	reloads, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "topology_reloads_total",
		Help: "Total number of committed snapshot reloads.",
	}), "topology_reloads_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		QueryRequests:    requests,
		QueryDurations:   durations,
		TopologyNodes:    nodes,
		TopologyLinks:    links,
		TopologyWarnings: warnings,
		TopologyReloads:  reloads,
	}, nil
}

// Middleware records request counts and durations for one API route.
func (c *Collector) Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if c.QueryRequests != nil {
			c.QueryRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		}
		if c.QueryDurations != nil {
			c.QueryDurations.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetTopologyCounts updates the snapshot gauges after a commit.
func (c *Collector) SetTopologyCounts(nodes, links, warnings int) {
	if c == nil {
		return
	}
	if c.TopologyNodes != nil {
		c.TopologyNodes.Set(float64(nodes))
	}
	if c.TopologyLinks != nil {
		c.TopologyLinks.Set(float64(links))
	}
	if c.TopologyWarnings != nil {
		c.TopologyWarnings.Set(float64(warnings))
	}
}

// IncReloads counts one committed reload.
func (c *Collector) IncReloads() {
	if c == nil || c.TopologyReloads == nil {
		return
	}
	c.TopologyReloads.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.written {
		r.status = status
		r.written = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
