// ABOUTME: Parameter merging shared by the capability providers.
// ABOUTME: Router values win; interpreter extraction fills the gaps.

package capability

import (
	"context"
	"log/slog"

	"github.com/2389/voyager-gateway/internal/interpreter"
)

// str returns v as a string, or "" when it is absent or another type.
func str(v any) string {
	s, _ := v.(string)
	return s
}

// extractMissing clones the request parameters and, when any required key
// is absent, asks the interpreter to extract values from the raw text.
// Router-supplied values always win over extracted ones. Extraction
// failures are logged and ignored.
func extractMissing(ctx context.Context, interp interpreter.Interpreter, logger *slog.Logger, domain string, req Request, required []string) map[string]any {
	params := make(map[string]any, len(req.Parameters))
	for k, v := range req.Parameters {
		params[k] = v
	}

	needs := false
	for _, key := range required {
		v, ok := params[key]
		if !ok || v == nil || v == "" {
			needs = true
			break
		}
	}
	if !needs || req.RawText == "" || interp == nil {
		return params
	}

	extracted, err := interp.Extract(ctx, domain, req.RawText, req.Context)
	if err != nil {
		logger.Warn("parameter extraction failed", "domain", domain, "error", err)
		return params
	}
	for k, v := range extracted {
		if _, ok := params[k]; !ok {
			params[k] = v
		}
	}
	return params
}
