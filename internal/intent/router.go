// ABOUTME: Intent router: keyword-first classification with interpreter fallback.
// ABOUTME: One keyword hit resolves locally; zero or several escalate to the interpreter.

package intent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/2389/voyager-gateway/internal/interpreter"
)

// Classification is the router's verdict for one message.
type Classification struct {
	// Primary is the dominant intent token, e.g. "search_flights".
	// Empty means the message could not be classified and the caller
	// should ask a clarifying question.
	Primary string

	// RequiresCoordination is true when the message spans several
	// capabilities and the turn needs parallel dispatch.
	RequiresCoordination bool

	// ProviderParams maps capability domain to the parameter set
	// extracted for it. Only populated when coordination is required.
	ProviderParams map[string]map[string]any
}

// domains lists the capability domains in a fixed order so keyword
// scanning is deterministic.
var domains = []string{"flight", "hotel", "restaurant", "excursion"}

// vocab holds the literal keywords signaling each domain.
var vocab = map[string][]string{
	"flight":     {"flight", "fly", "airline"},
	"hotel":      {"hotel", "accommodation"},
	"restaurant": {"restaurant", "dining", "table"},
	"excursion":  {"excursion", "tour", "activity"},
}

// defaultIntents maps a domain to its default search intent.
var defaultIntents = map[string]string{
	"flight":     "search_flights",
	"hotel":      "search_hotels",
	"restaurant": "search_restaurants",
	"excursion":  "search_excursions",
}

// DefaultIntent returns the default search intent for a capability domain,
// or "" for an unknown domain.
func DefaultIntent(domain string) string {
	return defaultIntents[domain]
}

// Router classifies messages. The fast path is a keyword scan; ambiguous
// or compound text escalates to the interpreter, and interpreter failure
// degrades to a deterministic fallback rather than an error.
type Router struct {
	interp interpreter.Interpreter
	logger *slog.Logger
}

// NewRouter creates a router backed by the given interpreter.
func NewRouter(interp interpreter.Interpreter, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		interp: interp,
		logger: logger.With("component", "router"),
	}
}

// Classify determines routing for the message. It always returns a
// classification; degradation paths are internal.
func (r *Router) Classify(ctx context.Context, text string, convContext map[string]any) *Classification {
	hits := keywordHits(text)

	if len(hits) == 1 {
		cls := &Classification{Primary: defaultIntents[hits[0]]}
		r.logger.Debug("classified by keyword", "domain", hits[0], "intent", cls.Primary)
		return cls
	}

	deep, err := r.interp.Classify(ctx, text, convContext)
	if err == nil {
		cls := fromDeep(deep)
		r.logger.Debug("classified by interpreter",
			"intent", cls.Primary,
			"coordination", cls.RequiresCoordination)
		return cls
	}
	r.logger.Warn("interpreter classification failed, degrading", "error", err)

	if len(hits) >= 2 {
		// Compound request with no interpreter: coordinate with empty
		// parameter sets and let providers extract for themselves.
		params := make(map[string]map[string]any, len(hits))
		for _, d := range hits {
			params[d] = map[string]any{}
		}
		return &Classification{
			Primary:              defaultIntents[hits[0]],
			RequiresCoordination: true,
			ProviderParams:       params,
		}
	}

	// Nothing matched and the interpreter is down: unclassified.
	return &Classification{}
}

// keywordHits returns the domains whose keywords appear in the text,
// in fixed domain order.
func keywordHits(text string) []string {
	lowered := strings.ToLower(text)
	var hits []string
	for _, d := range domains {
		for _, kw := range vocab[d] {
			if strings.Contains(lowered, kw) {
				hits = append(hits, d)
				break
			}
		}
	}
	return hits
}

// fromDeep converts an interpreter classification into routing terms.
func fromDeep(deep *interpreter.Classification) *Classification {
	cls := &Classification{Primary: deep.Primary}

	if cls.Primary == "" && len(deep.Domains) > 0 {
		cls.Primary = defaultIntents[deep.Domains[0]]
	}

	if len(deep.Domains) > 1 {
		cls.RequiresCoordination = true
		cls.ProviderParams = make(map[string]map[string]any, len(deep.Domains))
		for _, d := range deep.Domains {
			params := deep.Params[d]
			if params == nil {
				params = map[string]any{}
			}
			cls.ProviderParams[d] = params
		}
	}
	return cls
}
