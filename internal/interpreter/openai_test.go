// ABOUTME: Tests for the chat-completions interpreter client.
// ABOUTME: Fake endpoint verifies extraction, degradation, and classification parsing.

package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/voyager-gateway/internal/resilient"
)

// fakeCompletions returns a chat-completions server that always answers
// with the given content string.
func fakeCompletions(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4", req.Model)
		require.Len(t, req.Messages, 2)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(endpoint string) *OpenAIClient {
	caller := resilient.New(resilient.Options{
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		Timeout:     time.Second,
	}, nil)
	return NewOpenAIClient(endpoint, "test-key", "gpt-4", caller, nil)
}

func TestExtract_ParsesParameters(t *testing.T) {
	srv := fakeCompletions(t, `{"destination": "Paris", "number_of_passengers": 2}`)
	defer srv.Close()

	c := newTestClient(srv.URL)
	params, err := c.Extract(context.Background(), "flight", "two tickets to Paris", nil)

	require.NoError(t, err)
	assert.Equal(t, "Paris", params["destination"])
	assert.Equal(t, float64(2), params["number_of_passengers"])
}

func TestExtract_UnknownDomain(t *testing.T) {
	c := newTestClient("http://unused")
	_, err := c.Extract(context.Background(), "cruise", "text", nil)
	assert.Error(t, err)
}

func TestExtract_StripsCodeFence(t *testing.T) {
	srv := fakeCompletions(t, "```json\n{\"location\": \"Rome\"}\n```")
	defer srv.Close()

	c := newTestClient(srv.URL)
	params, err := c.Extract(context.Background(), "hotel", "hotel in Rome", nil)

	require.NoError(t, err)
	assert.Equal(t, "Rome", params["location"])
}

func TestEnhance_ReturnsEnhancedPayload(t *testing.T) {
	srv := fakeCompletions(t, `{"hotels": [{"name": "Le Grand", "summary": "Elegant stay near the Louvre"}]}`)
	defer srv.Close()

	c := newTestClient(srv.URL)
	out := c.Enhance(context.Background(), "hotel",
		map[string]any{"hotels": []any{map[string]any{"name": "Le Grand"}}}, nil)

	hotels := out["hotels"].([]any)
	first := hotels[0].(map[string]any)
	assert.Equal(t, "Elegant stay near the Louvre", first["summary"])
}

func TestEnhance_DegradesToRawOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	raw := map[string]any{"flights": []any{"FL123"}}
	c := newTestClient(srv.URL)
	out := c.Enhance(context.Background(), "flight", raw, nil)

	assert.Equal(t, raw, out, "enhancement must never lose the raw payload")
}

func TestEnhance_DegradesToRawOnGarbage(t *testing.T) {
	srv := fakeCompletions(t, "sorry, I cannot help with that")
	defer srv.Close()

	raw := map[string]any{"excursions": []any{}}
	c := newTestClient(srv.URL)
	out := c.Enhance(context.Background(), "excursion", raw, nil)

	assert.Equal(t, raw, out)
}

func TestClassify_ParsesCompoundRequest(t *testing.T) {
	srv := fakeCompletions(t, `{
		"primary": "search_flights",
		"domains": ["flight", "hotel"],
		"params": {
			"flight": {"destination": "Paris"},
			"hotel": {"location": "Paris"}
		}
	}`)
	defer srv.Close()

	c := newTestClient(srv.URL)
	cls, err := c.Classify(context.Background(), "flight and hotel for Paris", nil)

	require.NoError(t, err)
	assert.Equal(t, "search_flights", cls.Primary)
	assert.Equal(t, []string{"flight", "hotel"}, cls.Domains)
	assert.Equal(t, "Paris", cls.Params["flight"]["destination"])
	assert.Equal(t, "Paris", cls.Params["hotel"]["location"])
}

func TestClassify_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "{\"primary\": \"search_hotels\", \"domains\": [\"hotel\"]}"}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	cls, err := c.Classify(context.Background(), "somewhere to stay", nil)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "search_hotels", cls.Primary)
}

func TestClassify_ClientErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Classify(context.Background(), "anything", nil)
	assert.Error(t, err)
}
