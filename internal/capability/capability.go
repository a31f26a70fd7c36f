// ABOUTME: Core capability types: requests, responses, and the provider contract.
// ABOUTME: Providers answer conversationally; domain outcomes are never Go errors.

package capability

import "context"

// Request carries one dispatched turn to a provider.
type Request struct {
	// RawText is the user's message verbatim.
	RawText string

	// Intent is the operation the router selected, e.g. "search_flights".
	Intent string

	// Context is a read-only view of the session context.
	Context map[string]any

	// Parameters are router-extracted values for this provider. Providers
	// fall back to their own extraction when required values are missing.
	Parameters map[string]any
}

// StringParam returns a string parameter, or "" when absent or non-string.
func (r Request) StringParam(key string) string {
	v, ok := r.Parameters[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// IntParam returns an integer parameter with a default. JSON numbers
// arrive as float64 and are accepted too.
func (r Request) IntParam(key string, def int) int {
	switch v := r.Parameters[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

// Response is a provider's conversational answer. Success=false covers
// expected conditions like not-found and missing parameters; Message is
// always user-presentable and Data is nil unless Success is true.
type Response struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	Data         map[string]any `json:"data,omitempty"`
	Suggestions  []string       `json:"suggestions,omitempty"`
	ContextPatch map[string]any `json:"-"`
}

// Provider is one travel capability. Handle returns a Response for every
// domain outcome; a non-nil error means broken plumbing, not a domain
// condition, and the orchestrator turns it into an apology.
type Provider interface {
	Name() string
	SupportedIntents() []string
	Handle(ctx context.Context, req Request) (*Response, error)
}

// failure builds an unsuccessful response with deterministic suggestions.
func failure(message string, suggestions ...string) *Response {
	return &Response{
		Success:     false,
		Message:     message,
		Suggestions: suggestions,
	}
}
