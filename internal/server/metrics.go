package server

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Render kinds used as metric labels.
const (
	kindArticle = "article"
	kindChapter = "chapter"
	kindIndex   = "index"
)

// Metrics records preview server activity. A nil *Metrics records nothing.
type Metrics struct {
	registry       *prom.Registry
	renderDuration *prom.HistogramVec
	rendersTotal   *prom.CounterVec
	reloadsTotal   prom.Counter
	clients        prom.Gauge
}

// NewMetrics creates the server metrics and registers them, with the Go and
// process collectors, on reg. A nil reg gets a fresh registry.
func NewMetrics(reg *prom.Registry) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "md2html",
			Name:      "render_duration_seconds",
			Help:      "Time spent converting a document to HTML",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		rendersTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "md2html",
			Name:      "renders_total",
			Help:      "Rendered pages by kind and result",
		}, []string{"kind", "result"}),
		reloadsTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "md2html",
			Name:      "reloads_total",
			Help:      "Reload notifications sent after content changes",
		}),
		clients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "md2html",
			Name:      "livereload_clients",
			Help:      "Connected live reload websocket clients",
		}),
	}
	reg.MustRegister(m.renderDuration, m.rendersTotal, m.reloadsTotal, m.clients)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRender(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	m.renderDuration.WithLabelValues(kind).Observe(d.Seconds())
	m.rendersTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) incReload() {
	if m == nil {
		return
	}
	m.reloadsTotal.Inc()
}

func (m *Metrics) addClients(delta int) {
	if m == nil {
		return
	}
	m.clients.Add(float64(delta))
}
