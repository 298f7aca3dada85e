// Package quota decides whether an inference error is a transient
// rate-limit, computes when the work should be retried, and provides the
// bounded inline retry helper used on the request path. The upstream
// service's error shape is not uniform, so classification is deliberately
// permissive and multi-signal.
package quota
