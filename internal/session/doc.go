// ABOUTME: Package documentation for session
// ABOUTME: Describes conversation sessions and the TTL store

// Package session holds per-conversation state: the transcript, the
// accumulated context, and the TTL-bounded in-memory store that owns
// both. A Repository may be attached for durability; memory stays
// authoritative and expiry is destructive.
package session
