// Package observability provides structured logging and Prometheus metrics.
//
// # Structured Logging
//
// Create a logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.WithField("module", "System").Warn("unresolved type")
//
// Terminals usually want the text handler:
//
//	logger := observability.NewLoggerWithFormat(observability.InfoLevel, observability.FormatText, os.Stderr)
//
// # Prometheus Metrics
//
// Metrics live in a caller-owned registry. A one-shot CLI run exports them
// through the node exporter textfile collector:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.ReductionsTotal.WithLabelValues("14", "success").Inc()
//	_ = metrics.WriteTextfile("/var/lib/node_exporter/palletdiff.prom")
//
// # Panics
//
// RecoverToError turns a panic in a worker goroutine into an ordinary error.
package observability
