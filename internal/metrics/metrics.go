// Package metrics exposes the Prometheus instruments shared across the
// subsystem. Collectors register on the default registry and are served
// by the dashboard's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesTotal counts completed searches by resolution method
	// (vector, hybrid, title_match, none).
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowbase_searches_total",
		Help: "Completed searches by resolution method.",
	}, []string{"method"})

	// SearchCacheHitsTotal counts searches answered from the query cache.
	SearchCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowbase_search_cache_hits_total",
		Help: "Searches answered from the query cache.",
	})

	// IngestsTotal counts successful ingestions by namespace.
	IngestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowbase_ingests_total",
		Help: "Successful ingestions by namespace.",
	}, []string{"namespace"})

	// DeletesTotal counts successful URL deletions.
	DeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowbase_deletes_total",
		Help: "Entries deleted by URL.",
	})
)
