// Package observe provides Prometheus metrics and OpenTelemetry tracing
// for client sessions. Both are delivered as batch hooks and tree
// observers so the reconciliation engine stays free of metrics code.
package observe
