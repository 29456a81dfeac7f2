// Package storage defines the job store used by the reference execution
// service, together with the sentinel errors shared by its adapters.
//
// Adapters live in subpackages: memory (process-local, optional LRU
// eviction) and postgres (pgx connection pool, embedded migrations).
package storage
