// Package task implements the background worker loops that drain the retry
// queue. Each queue kind gets its own Scheduler polling on a fixed interval;
// a cycle fetches everything eligible, bulk-prefetches the owning records,
// processes items in parallel, and reports aggregate counts. Items are
// deleted on success and rescheduled (or parked dormant at the retry
// ceiling) on failure. There is no in-memory queue: the database row is the
// only source of truth, so a crash mid-cycle leaves items eligible for the
// next cycle.
package task
