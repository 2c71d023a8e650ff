// Package telemetry exposes interception metrics over Prometheus.
package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Interceptions counts operator calls routed through a capability's
	// fallback interceptor, by key.
	Interceptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strand_interceptions_total",
			Help: "Total operator calls intercepted, by capability key",
		},
		[]string{"key"},
	)
	// Transforms counts input tensors rewritten on the way in.
	Transforms = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strand_transforms_total",
			Help: "Total input tensors transformed, by capability key",
		},
		[]string{"key"},
	)
	// Untransforms counts output tensors reconciled on the way out.
	Untransforms = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strand_untransforms_total",
			Help: "Total output tensors reconciled, by capability key",
		},
		[]string{"key"},
	)
	// FallthroughHits counts dispatches that skipped a key via an
	// operator's fallthrough declaration.
	FallthroughHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strand_fallthrough_hits_total",
			Help: "Total dispatches resolved past a key by fallthrough, by capability key",
		},
		[]string{"key"},
	)
	// InterceptionErrors counts failed interceptions, by key and stage
	// (transform, dispatch, untransform).
	InterceptionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strand_interception_errors_total",
			Help: "Total failed interceptions, by capability key and stage",
		},
		[]string{"key", "stage"},
	)
)

func init() {
	prometheus.MustRegister(Interceptions, Transforms, Untransforms, FallthroughHits, InterceptionErrors)
}

// Expose serves /metrics on the given port in the background.
func Expose(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
	}()
}
