package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// documentsProcessed counts extraction attempts by result.
	// Labels: result (success, empty, error)
	documentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jurimetrics",
			Subsystem: "pipeline",
			Name:      "documents_processed_total",
			Help:      "Total number of decision documents processed by extraction",
		},
		[]string{"result"},
	)

	// extractionDuration tracks end-to-end per-document extraction time.
	extractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jurimetrics",
			Subsystem: "pipeline",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of factor and citation extraction per document",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// entityRecomputes counts profile/line/graph recomputations by result.
	// Labels: result (success, insufficient_data, error)
	entityRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jurimetrics",
			Subsystem: "pipeline",
			Name:      "entity_recomputes_total",
			Help:      "Total number of per-entity aggregate recomputations",
		},
		[]string{"result"},
	)

	// modelsTrained counts training runs by result.
	// Labels: result (success, trivial, insufficient_data, error)
	modelsTrained = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jurimetrics",
			Subsystem: "pipeline",
			Name:      "models_trained_total",
			Help:      "Total number of predictive model training runs",
		},
		[]string{"result"},
	)
)
