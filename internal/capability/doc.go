// ABOUTME: Package documentation for capability
// ABOUTME: Describes the provider contract, the four providers, and the registry

// Package capability implements the travel capabilities: flight, hotel,
// restaurant, and excursion providers plus the registry that maps intents
// to them.
//
// Providers follow one pipeline: merge router parameters with interpreter
// extraction, validate required values, call the backing API, enhance the
// payload best-effort, and answer with a conversational Response. Domain
// outcomes, including not-found and missing parameters, are Success=false
// responses rather than errors; only broken plumbing surfaces as a Go error.
package capability
