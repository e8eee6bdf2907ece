// Package metrics exposes Prometheus counters for the scrape loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Attempts           prometheus.Counter
	NoContent          prometheus.Counter
	ExtractionFailures prometheus.Counter
	BatchesEmitted     prometheus.Counter
	ItemsEmitted       prometheus.Counter
	Exhaustions        prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	attempts := prometheus.NewCounter(prometheus.CounterOpts{Name: "csmoney_scrape_attempts_total"})
	noContent := prometheus.NewCounter(prometheus.CounterOpts{Name: "csmoney_scrape_no_content_total"})
	extractFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "csmoney_scrape_extraction_failures_total"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{Name: "csmoney_batches_emitted_total"})
	items := prometheus.NewCounter(prometheus.CounterOpts{Name: "csmoney_items_emitted_total"})
	exhaustions := prometheus.NewCounter(prometheus.CounterOpts{Name: "csmoney_scrape_exhaustions_total"})

	r.MustRegister(attempts, noContent, extractFailed, batches, items, exhaustions)
	return &Registry{
		reg:                r,
		Attempts:           attempts,
		NoContent:          noContent,
		ExtractionFailures: extractFailed,
		BatchesEmitted:     batches,
		ItemsEmitted:       items,
		Exhaustions:        exhaustions,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
