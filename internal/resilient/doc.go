// ABOUTME: Package documentation for resilient
// ABOUTME: Describes the retrying outbound-call wrapper

// Package resilient executes outbound operations with per-attempt
// timeouts and exponential backoff. Operations mark retriable failures
// with Transient; exhaustion and terminal failures surface as classified
// apierr errors.
package resilient
