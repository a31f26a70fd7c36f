// ABOUTME: Merge policy for coordinated dispatch results.
// ABOUTME: Data union by provider, qualified partial messages, capped suggestions.

package orchestrator

import (
	"fmt"
	"strings"

	"github.com/2389/voyager-gateway/internal/capability"
)

// maxSuggestions caps the merged quick-reply list.
const maxSuggestions = 5

// providerResult pairs a provider name with its response. A nil response
// means the provider failed or missed the turn deadline.
type providerResult struct {
	name string
	resp *capability.Response
}

// merge combines coordinated results into one response. Order of results
// follows provider registration order, which fixes message ordering,
// suggestion ranking, and context-patch precedence (last write wins).
func merge(results []providerResult) *capability.Response {
	var succeeded, failed []string
	var messages []string
	data := make(map[string]any)
	patch := make(map[string]any)
	var suggestions []string
	seen := make(map[string]bool)

	for _, r := range results {
		if r.resp == nil || !r.resp.Success {
			failed = append(failed, r.name)
			continue
		}
		succeeded = append(succeeded, r.name)
		messages = append(messages, r.resp.Message)
		if r.resp.Data != nil {
			data[r.name] = r.resp.Data
		}
		for _, s := range r.resp.Suggestions {
			if !seen[s] {
				seen[s] = true
				suggestions = append(suggestions, s)
			}
		}
		for k, v := range r.resp.ContextPatch {
			patch[k] = v
		}
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	if len(succeeded) == 0 {
		return &capability.Response{
			Success:     false,
			Message:     "Sorry, I couldn't complete any part of your request right now. Please try again.",
			Suggestions: []string{"Try again", "Plan step by step"},
		}
	}

	message := strings.Join(messages, "\n\n")
	if len(failed) > 0 {
		message = fmt.Sprintf(
			"I found results for %s, but had trouble with %s.\n\n%s",
			strings.Join(succeeded, " and "),
			strings.Join(failed, " and "),
			message)
	}

	if len(data) == 0 {
		data = nil
	}
	return &capability.Response{
		Success:      true,
		Message:      message,
		Data:         data,
		Suggestions:  suggestions,
		ContextPatch: patch,
	}
}
