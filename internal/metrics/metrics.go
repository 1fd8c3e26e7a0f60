// Package metrics exposes Prometheus collectors for the corpus pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "granth_pages_parsed_total",
			Help: "Total ang pages run through the parser, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	linesEmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "granth_lines_emitted_total",
			Help: "Total canonical line records emitted.",
		},
	)

	pipelineEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "granth_pipeline_events_total",
			Help: "Error and warning events recorded by the pipeline, labeled by severity.",
		},
		[]string{"severity"},
	)

	discrepanciesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "granth_crossval_discrepancies_total",
			Help: "Cross-validation discrepancies, labeled by classification.",
		},
		[]string{"type"},
	)

	pagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "granth_pages_fetched_total",
			Help: "Ang pages fetched by the scraper, labeled by status class.",
		},
		[]string{"status"},
	)
)

// PageParsed records one parser run with its outcome ("ok" or "error").
func PageParsed(outcome string) {
	pagesParsedTotal.WithLabelValues(outcome).Inc()
}

// LinesEmitted adds n to the emitted-record counter.
func LinesEmitted(n int) {
	linesEmittedTotal.Add(float64(n))
}

// PipelineEvent records one error or warning, labeled by severity.
func PipelineEvent(severity string) {
	pipelineEventsTotal.WithLabelValues(severity).Inc()
}

// DiscrepancyObserved records one classified cross-validation mismatch.
func DiscrepancyObserved(kind string) {
	discrepanciesTotal.WithLabelValues(kind).Inc()
}

// PageFetched records one scraper fetch, labeled by HTTP status class.
func PageFetched(status string) {
	pagesFetchedTotal.WithLabelValues(status).Inc()
}
