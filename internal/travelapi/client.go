// ABOUTME: REST client core for the travel provider backing APIs.
// ABOUTME: Routes every round trip through the resilient caller with bearer auth.

package travelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/2389/voyager-gateway/internal/apierr"
	"github.com/2389/voyager-gateway/internal/resilient"
)

// Client talks to one backing travel API. Connection failures and 5xx
// responses are retried by the resilient caller; 4xx responses are terminal,
// with 404 surfacing as a not-found condition rather than a fault.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	httpc   *http.Client
	caller  *resilient.Client
	logger  *slog.Logger
}

// New creates a client for the named backing API.
func New(name, baseURL, apiKey string, caller *resilient.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{},
		caller:  caller,
		logger:  logger.With("component", "travelapi", "api", name),
	}
}

// get performs a GET with the given query parameters.
func (c *Client) get(ctx context.Context, path string, query map[string]any) (map[string]any, error) {
	return c.call(ctx, http.MethodGet, path, query, nil)
}

// post performs a POST with a JSON body.
func (c *Client) post(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	return c.call(ctx, http.MethodPost, path, nil, body)
}

// del performs a DELETE.
func (c *Client) del(ctx context.Context, path string) (map[string]any, error) {
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}

// call runs one request through the resilient caller and decodes the
// JSON response into a map payload.
func (c *Client) call(ctx context.Context, method, path string, query, body map[string]any) (map[string]any, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + encodeQuery(query)
	}

	c.logger.Debug("calling backing api", "method", method, "url", target)

	var payload map[string]any
	err := c.caller.Do(ctx, c.name, func(ctx context.Context) error {
		var reqBody io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("encoding request body: %w", err)
			}
			reqBody = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			// Network-level failure: worth retrying.
			return resilient.Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return resilient.Transient(fmt.Errorf("%s returned status %d", c.name, resp.StatusCode))
		}
		if resp.StatusCode == http.StatusNotFound {
			return apierr.New(apierr.KindNotFound,
				fmt.Sprintf("%s has no record for %s", c.name, path)).WithStatus(resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			msg := readErrorMessage(resp.Body)
			return apierr.New(apierr.KindRequestRejected,
				fmt.Sprintf("%s rejected the request: %s", c.name, msg)).WithStatus(resp.StatusCode)
		}

		payload = nil
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			if err == io.EOF {
				payload = map[string]any{}
				return nil
			}
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// encodeQuery flattens a parameter map into a query string, skipping nils.
func encodeQuery(params map[string]any) string {
	values := url.Values{}
	for k, v := range params {
		if v == nil {
			continue
		}
		values.Set(k, fmt.Sprint(v))
	}
	return values.Encode()
}

// readErrorMessage pulls the "message" field from an error body, falling
// back to a generic description when the body is not parseable.
func readErrorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err == nil && body.Message != "" {
		return body.Message
	}
	return "no detail provided"
}
