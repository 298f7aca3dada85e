// Package postgres implements the store interfaces on PostgreSQL via
// database/sql with the pgx driver. Dedup gates are ON CONFLICT inserts on
// content-hash unique indexes; batch lookups go through unnest so a request
// issues O(1) round trips regardless of batch size.
package postgres
