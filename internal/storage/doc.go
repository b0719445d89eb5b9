// Package storage provides the PostgreSQL-backed implementations of the
// entitlement store interfaces, built directly on pgx pools. Statements that
// race under concurrent requests (usage increments, subscription upserts)
// are single atomic upserts so correctness never depends on the caller.
package storage
