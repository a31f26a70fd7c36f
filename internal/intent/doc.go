// ABOUTME: Package documentation for intent
// ABOUTME: Describes the two-tier classification strategy

// Package intent classifies user messages into routing decisions.
//
// Classification is two-tier: a literal keyword scan settles the common
// single-capability case without any network call, while ambiguous or
// compound messages escalate to the interpreter. When the interpreter is
// unavailable the router degrades deterministically instead of failing the
// turn.
package intent
