// Package store defines the persistence interfaces and shared error
// vocabulary for the durable record store and the retry queue.
package store
