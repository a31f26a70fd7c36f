// ABOUTME: Package documentation for orchestrator
// ABOUTME: Describes the per-turn pipeline and its failure posture

// Package orchestrator drives each conversation turn: load or create the
// session, classify the message, dispatch to one provider or fan out to
// several in parallel, merge the results, persist session updates, and
// return a normalized response.
//
// The orchestrator never surfaces an internal fault to the caller. Broken
// plumbing yields an apology response; an unclassifiable message yields a
// clarifying prompt. Coordinated dispatch tolerates partial failure: a
// provider that errors or misses the turn deadline is reported in the
// merged message while the other results stand.
package orchestrator
