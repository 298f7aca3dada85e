// Package service implements the inline-first orchestrators. Each unit of
// work (one resume's extraction, one resume's anonymization, one job's
// analysis, one candidate/job scoring) is attempted synchronously within
// the request; a classified rate-limit converts it to a durable queue item
// instead of a failure, and any other error fails just that unit. Batch
// entry points always return partial per-unit results.
package service
