// ABOUTME: OpenAI-compatible chat-completions implementation of the interpreter.
// ABOUTME: Sends prompt templates per task and parses JSON out of completions.

package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/voyager-gateway/internal/resilient"
)

const systemPrompt = "You are a travel assistant. Always respond with valid JSON and nothing else."

// extractionFields lists the parameters the extractor asks for per domain.
var extractionFields = map[string]string{
	"flight":     "origin, destination, departure_date, return_date, number_of_passengers, class_preference, flexible_dates",
	"hotel":      "location, check_in, check_out, guests, room_type, max_price, amenities, star_rating",
	"restaurant": "location, cuisine, price_range, party_size, date_time, dietary_restrictions, atmosphere",
	"excursion":  "location, date, activity_type, duration, participants, max_price, difficulty_level",
}

// OpenAIClient implements Interpreter against a chat-completions endpoint.
type OpenAIClient struct {
	endpoint string
	apiKey   string
	model    string
	httpc    *http.Client
	caller   *resilient.Client
	logger   *slog.Logger
}

var _ Interpreter = (*OpenAIClient)(nil)

// NewOpenAIClient creates an interpreter backed by a chat-completions API.
func NewOpenAIClient(endpoint, apiKey, model string, caller *resilient.Client, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		httpc:    &http.Client{},
		caller:   caller,
		logger:   logger.With("component", "interpreter"),
	}
}

// Extract pulls structured parameters for one domain out of free text.
func (c *OpenAIClient) Extract(ctx context.Context, domain, text string, convContext map[string]any) (map[string]any, error) {
	fields, ok := extractionFields[domain]
	if !ok {
		return nil, fmt.Errorf("unknown extraction domain %q", domain)
	}

	prompt := fmt.Sprintf(
		"Extract %s search parameters from the user message below. "+
			"Return a JSON object with any of these fields you can determine: %s. "+
			"Omit fields you cannot determine.\n\nMessage: %s\nContext: %s",
		domain, fields, text, compactJSON(convContext))

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extracting %s parameters: %w", domain, err)
	}

	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("parsing extraction result: %w", err)
	}
	return params, nil
}

// Enhance rewrites a raw payload to be more presentable. On any failure the
// raw payload comes back unchanged; callers never see an error.
func (c *OpenAIClient) Enhance(ctx context.Context, domain string, raw, convContext map[string]any) map[string]any {
	prompt := fmt.Sprintf(
		"Enhance the following %s information to be clear and user-friendly. "+
			"Return valid JSON with the same structure.\nData: %s\nContext: %s",
		domain, compactJSON(raw), compactJSON(convContext))

	out, err := c.complete(ctx, prompt)
	if err != nil {
		c.logger.Warn("enhancement failed, returning raw payload", "domain", domain, "error", err)
		return raw
	}

	var enhanced map[string]any
	if err := json.Unmarshal(out, &enhanced); err != nil {
		c.logger.Warn("enhancement returned non-object, returning raw payload", "domain", domain, "error", err)
		return raw
	}
	return enhanced
}

// Classify performs deep intent analysis on a message.
func (c *OpenAIClient) Classify(ctx context.Context, text string, convContext map[string]any) (*Classification, error) {
	prompt := fmt.Sprintf(
		"Classify the travel request below. Return a JSON object with fields: "+
			"\"primary\" (the main intent, e.g. search_flights), "+
			"\"domains\" (array drawn from flight, hotel, restaurant, excursion), and "+
			"\"params\" (object keyed by domain, each value an object of extracted parameters).\n\n"+
			"Message: %s\nContext: %s",
		text, compactJSON(convContext))

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("classifying message: %w", err)
	}

	var cls Classification
	if err := json.Unmarshal(raw, &cls); err != nil {
		return nil, fmt.Errorf("parsing classification: %w", err)
	}
	return &cls, nil
}

// chatRequest and chatResponse follow the chat-completions wire format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one prompt through the resilient caller and returns the
// completion content as raw JSON bytes.
func (c *OpenAIClient) complete(ctx context.Context, prompt string) (json.RawMessage, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding completion request: %w", err)
	}

	var content string
	err = c.caller.Do(ctx, "interpreter", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.endpoint+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("building completion request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return resilient.Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return resilient.Transient(fmt.Errorf("interpreter returned status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("interpreter returned status %d", resp.StatusCode)
		}

		var cr chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return fmt.Errorf("decoding completion: %w", err)
		}
		if len(cr.Choices) == 0 {
			return fmt.Errorf("completion had no choices")
		}
		content = cr.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return nil, err
	}

	return json.RawMessage(stripFences(content)), nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// compactJSON renders a map for prompt embedding.
func compactJSON(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	out, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(out)
}
