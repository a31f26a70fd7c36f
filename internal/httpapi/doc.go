// ABOUTME: Package documentation for httpapi
// ABOUTME: Describes the web surface over the orchestration engine

// Package httpapi exposes the conversation engine over HTTP:
//
//	POST   /api/conversations/{id}/messages  — process one turn
//	GET    /api/conversations/{id}           — read transcript and context
//	DELETE /api/conversations/{id}           — end the conversation
//	GET    /health                           — liveness, unauthenticated
//
// Bearer-token auth (HS256 JWT) guards the conversation endpoints when a
// secret is configured; without one the API is open.
package httpapi
