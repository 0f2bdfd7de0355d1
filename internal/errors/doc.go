// Package errors provides structured errors for the strand client runtime.
//
// Errors carry a category, a registered code (e.g. "E101"), and optional
// detail and suggestion text. Integrity errors (tree corruption, registry
// divergence) are unrecoverable within a reconciliation pass; the runtime
// panics with them and recovers at the batch boundary.
package errors
