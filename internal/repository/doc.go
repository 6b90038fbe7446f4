// Package repository contains the record store implementations for relaygate.
//
// Stores implement domain.RecordStore and differ only in where records live:
//   - memory: an in-process mutex-guarded map, the default driver
//   - postgres: a single JSONB records table on a pgx pool
//
// GuardedStore wraps either driver with a circuit breaker and storage
// metrics. Only infrastructure failures count against the breaker; a missing
// record or a bad filter does not.
//
// # Thread Safety
//
// All implementations are safe for concurrent use.
package repository
