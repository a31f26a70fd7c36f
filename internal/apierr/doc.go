// ABOUTME: Package documentation for apierr
// ABOUTME: Describes the shared outbound-call error taxonomy

// Package apierr defines the error taxonomy for outbound calls: a Kind
// per failure class, an Error type that wraps the cause, and predicates
// (IsNotFound, IsConnectionExhausted, ...) callers branch on.
package apierr
