// ABOUTME: Package documentation for interpreter
// ABOUTME: Describes the language-understanding collaborator and its default client

// Package interpreter defines the language-understanding collaborator the
// router and capability providers lean on: parameter extraction, payload
// enhancement, and deep intent classification.
//
// The default implementation talks to an OpenAI-compatible chat-completions
// endpoint. Enhancement is strictly best-effort: any failure returns the
// caller's raw payload so a turn never fails on presentation polish.
package interpreter
