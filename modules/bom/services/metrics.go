package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bomExtractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bom",
		Subsystem: "pipeline",
		Name:      "extractions_total",
		Help:      "Total number of extraction runs broken down by mode and result.",
	}, []string{"mode", "result"})

	bomImportBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bom",
		Subsystem: "import",
		Name:      "batches_total",
		Help:      "Total number of import batches broken down by result.",
	}, []string{"result"})

	bomImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bom",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Total number of imported rows broken down by result.",
	}, []string{"result"})
)

func recordExtraction(mode string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	bomExtractions.WithLabelValues(mode, result).Inc()
}

func recordBatchOutcome(imported, failed int) {
	if failed > 0 {
		bomImportBatches.WithLabelValues("failed").Inc()
		bomImportRows.WithLabelValues("failed").Add(float64(failed))
	}
	if imported > 0 {
		bomImportBatches.WithLabelValues("ok").Inc()
		bomImportRows.WithLabelValues("ok").Add(float64(imported))
	}
}
