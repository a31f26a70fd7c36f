// Package store provides the durable conversation tier using SQLite.
//
// SQLiteRepository implements session.Repository. The in-memory session
// store remains authoritative for liveness and TTL; this tier exists so
// live conversations survive a process restart. Expired rows are ignored
// and removed on load, keeping expiry destructive.
//
// Messages are append-only: Save upserts the conversation row and inserts
// only message ids not yet present, preserving transcript order via rowid.
package store
