// ABOUTME: Interpreter contract for language understanding collaborators.
// ABOUTME: Extraction, enhancement, and deep classification over user text.

package interpreter

import "context"

// Classification is the interpreter's reading of an ambiguous message.
type Classification struct {
	// Primary is the intent to dispatch, e.g. "search_flights".
	Primary string `json:"primary"`

	// Domains lists every capability domain the message touches.
	// More than one domain means the turn needs coordination.
	Domains []string `json:"domains"`

	// Params carries per-domain parameter sets keyed by domain name.
	Params map[string]map[string]any `json:"params"`
}

// Interpreter is the language-understanding collaborator. Implementations
// call out to an LLM; tests substitute mocks.
type Interpreter interface {
	// Extract pulls structured parameters for one domain out of free text.
	Extract(ctx context.Context, domain, text string, convContext map[string]any) (map[string]any, error)

	// Enhance rewrites a raw payload to be more presentable. It never
	// fails: on any error the raw payload is returned unchanged.
	Enhance(ctx context.Context, domain string, raw, convContext map[string]any) map[string]any

	// Classify performs deep intent analysis on text the keyword pass
	// could not settle.
	Classify(ctx context.Context, text string, convContext map[string]any) (*Classification, error)
}
