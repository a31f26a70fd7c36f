// ABOUTME: Tests for the orchestrator turn pipeline.
// ABOUTME: Covers single dispatch, coordination, partial failure, and persistence.

package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/voyager-gateway/internal/capability"
	"github.com/2389/voyager-gateway/internal/intent"
	"github.com/2389/voyager-gateway/internal/session"
)

// stubClassifier returns a fixed classification.
type stubClassifier struct {
	cls *intent.Classification
}

func (s *stubClassifier) Classify(ctx context.Context, text string, convContext map[string]any) *intent.Classification {
	return s.cls
}

// stubCapability is a scriptable provider.
type stubCapability struct {
	name    string
	intents []string
	resp    *capability.Response
	err     error
	delay   time.Duration
	gotReq  capability.Request
}

func (s *stubCapability) Name() string               { return s.name }
func (s *stubCapability) SupportedIntents() []string { return s.intents }

func (s *stubCapability) Handle(ctx context.Context, req capability.Request) (*capability.Response, error) {
	s.gotReq = req
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.resp, s.err
}

func newOrchestrator(t *testing.T, cls *intent.Classification, providers ...*stubCapability) (*Orchestrator, *session.Store) {
	t.Helper()
	store := session.NewStore(time.Minute, nil, nil)
	registry := capability.NewRegistry(nil)
	for _, p := range providers {
		require.NoError(t, registry.Register(p))
	}
	o := New(store, registry, &stubClassifier{cls: cls}, time.Second, nil)
	return o, store
}

func TestProcessMessage_SingleDispatch(t *testing.T) {
	flight := &stubCapability{
		name:    "flight",
		intents: []string{"search_flights"},
		resp: &capability.Response{
			Success:      true,
			Message:      "Here are your flights.",
			Data:         map[string]any{"flights": []any{"FL1"}},
			Suggestions:  []string{"View more details"},
			ContextPatch: map[string]any{"last_intent": "search_flights", "destination": "Paris"},
		},
	}
	o, store := newOrchestrator(t, &intent.Classification{Primary: "search_flights"}, flight)

	resp := o.ProcessMessage(context.Background(), "conv-1", "flight to Paris")

	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "Here are your flights.", resp.Message)
	assert.Equal(t, "flight to Paris", flight.gotReq.RawText)
	assert.Equal(t, "search_flights", flight.gotReq.Intent)

	sess := store.GetOrCreate(context.Background(), "conv-1")
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, session.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, session.RoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, "Here are your flights.", sess.Messages[1].Content)
	assert.Equal(t, "search_flights", sess.Context.LastIntent)
	assert.Equal(t, "Paris", sess.Context.Memory["destination"])
}

func TestProcessMessage_UnclassifiedYieldsClarifyingPrompt(t *testing.T) {
	o, store := newOrchestrator(t, &intent.Classification{})

	resp := o.ProcessMessage(context.Background(), "conv-1", "hello")

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "flight, hotel, restaurant, or excursion")
	assert.NotEmpty(t, resp.Suggestions)

	sess := store.GetOrCreate(context.Background(), "conv-1")
	assert.Len(t, sess.Messages, 2, "clarifying reply is still persisted")
}

func TestProcessMessage_NoProviderForIntent(t *testing.T) {
	o, _ := newOrchestrator(t, &intent.Classification{Primary: "book_cruise"})

	resp := o.ProcessMessage(context.Background(), "conv-1", "book a cruise")

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "couldn't identify")
}

func TestProcessMessage_ProviderErrorYieldsApology(t *testing.T) {
	flight := &stubCapability{
		name:    "flight",
		intents: []string{"search_flights"},
		err:     errors.New("broken plumbing"),
	}
	o, store := newOrchestrator(t, &intent.Classification{Primary: "search_flights"}, flight)

	resp := o.ProcessMessage(context.Background(), "conv-1", "flight to Paris")

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Sorry")
	assert.Nil(t, resp.Data)

	sess := store.GetOrCreate(context.Background(), "conv-1")
	assert.Equal(t, resp.Message, sess.Messages[1].Content)
}

func TestProcessMessage_CoordinatedMerge(t *testing.T) {
	flight := &stubCapability{
		name:    "flight",
		intents: []string{"search_flights"},
		resp: &capability.Response{
			Success:      true,
			Message:      "Found 2 flights.",
			Data:         map[string]any{"flights": []any{"FL1", "FL2"}},
			Suggestions:  []string{"Compare flights", "Refine search"},
			ContextPatch: map[string]any{"destination": "Paris"},
		},
	}
	hotel := &stubCapability{
		name:    "hotel",
		intents: []string{"search_hotels"},
		resp: &capability.Response{
			Success:      true,
			Message:      "Found 3 hotels.",
			Data:         map[string]any{"hotels": []any{"H1", "H2", "H3"}},
			Suggestions:  []string{"Refine search", "Check availability"},
			ContextPatch: map[string]any{"destination": "Paris, France"},
		},
	}
	cls := &intent.Classification{
		Primary:              "search_flights",
		RequiresCoordination: true,
		ProviderParams: map[string]map[string]any{
			"flight": {"destination": "Paris"},
			"hotel":  {"location": "Paris"},
		},
	}
	o, store := newOrchestrator(t, cls, flight, hotel)

	resp := o.ProcessMessage(context.Background(), "conv-1", "flight and hotel to Paris")

	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "Found 2 flights.")
	assert.Contains(t, resp.Message, "Found 3 hotels.")

	// Data union keyed by provider name.
	require.Contains(t, resp.Data, "flight")
	require.Contains(t, resp.Data, "hotel")

	// Suggestions deduplicated, provider order preserved.
	assert.Equal(t, []string{"Compare flights", "Refine search", "Check availability"}, resp.Suggestions)

	// Providers received their own parameter sets and default intents.
	assert.Equal(t, "search_flights", flight.gotReq.Intent)
	assert.Equal(t, "search_hotels", hotel.gotReq.Intent)
	assert.Equal(t, "Paris", flight.gotReq.Parameters["destination"])
	assert.Equal(t, "Paris", hotel.gotReq.Parameters["location"])

	// Context patch: last write wins in registration order.
	sess := store.GetOrCreate(context.Background(), "conv-1")
	assert.Equal(t, "Paris, France", sess.Context.Memory["destination"])
}

func TestProcessMessage_CoordinatedPartialFailure(t *testing.T) {
	flight := &stubCapability{
		name:    "flight",
		intents: []string{"search_flights"},
		resp: &capability.Response{
			Success: true,
			Message: "Found 2 flights.",
			Data:    map[string]any{"flights": []any{"FL1"}},
		},
	}
	hotel := &stubCapability{
		name:    "hotel",
		intents: []string{"search_hotels"},
		err:     errors.New("hotel backend exploded"),
	}
	cls := &intent.Classification{
		RequiresCoordination: true,
		ProviderParams: map[string]map[string]any{
			"flight": {}, "hotel": {},
		},
	}
	o, _ := newOrchestrator(t, cls, flight, hotel)

	resp := o.ProcessMessage(context.Background(), "conv-1", "flight and hotel")

	assert.True(t, resp.Success, "partial results still count as a successful turn")
	assert.Contains(t, resp.Message, "had trouble with hotel")
	assert.Contains(t, resp.Message, "Found 2 flights.")
	assert.Contains(t, resp.Data, "flight")
	assert.NotContains(t, resp.Data, "hotel")
}

func TestProcessMessage_CoordinatedAllFail(t *testing.T) {
	flight := &stubCapability{name: "flight", intents: []string{"search_flights"}, err: errors.New("down")}
	hotel := &stubCapability{name: "hotel", intents: []string{"search_hotels"}, err: errors.New("down")}
	cls := &intent.Classification{
		RequiresCoordination: true,
		ProviderParams:       map[string]map[string]any{"flight": {}, "hotel": {}},
	}
	o, _ := newOrchestrator(t, cls, flight, hotel)

	resp := o.ProcessMessage(context.Background(), "conv-1", "flight and hotel")

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "couldn't complete")
}

func TestProcessMessage_SlowProviderMissesDeadline(t *testing.T) {
	flight := &stubCapability{
		name:    "flight",
		intents: []string{"search_flights"},
		resp:    &capability.Response{Success: true, Message: "Found flights."},
	}
	hotel := &stubCapability{
		name:    "hotel",
		intents: []string{"search_hotels"},
		resp:    &capability.Response{Success: true, Message: "never returned"},
		delay:   5 * time.Second,
	}
	cls := &intent.Classification{
		RequiresCoordination: true,
		ProviderParams:       map[string]map[string]any{"flight": {}, "hotel": {}},
	}
	store := session.NewStore(time.Minute, nil, nil)
	registry := capability.NewRegistry(nil)
	require.NoError(t, registry.Register(flight))
	require.NoError(t, registry.Register(hotel))
	o := New(store, registry, &stubClassifier{cls: cls}, 50*time.Millisecond, nil)

	start := time.Now()
	resp := o.ProcessMessage(context.Background(), "conv-1", "flight and hotel")

	assert.Less(t, time.Since(start), time.Second, "straggler must not block the turn")
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "had trouble with hotel")
	assert.Contains(t, resp.Message, "Found flights.")
}

func TestProcessMessage_CoordinationWithUnknownProviders(t *testing.T) {
	cls := &intent.Classification{
		RequiresCoordination: true,
		ProviderParams:       map[string]map[string]any{"cruise": {}},
	}
	o, _ := newOrchestrator(t, cls)

	resp := o.ProcessMessage(context.Background(), "conv-1", "book a cruise and a yacht")

	assert.Contains(t, resp.Message, "couldn't identify")
}

func TestEndConversation(t *testing.T) {
	o, store := newOrchestrator(t, &intent.Classification{})

	o.ProcessMessage(context.Background(), "conv-1", "hello")
	_, ok := o.GetConversation(context.Background(), "conv-1")
	require.True(t, ok)

	o.EndConversation(context.Background(), "conv-1")
	_, ok = o.GetConversation(context.Background(), "conv-1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestGetConversation_UnknownID(t *testing.T) {
	o, _ := newOrchestrator(t, &intent.Classification{})

	_, ok := o.GetConversation(context.Background(), "never-seen")
	assert.False(t, ok)
}

func TestContextView_ExposesSessionState(t *testing.T) {
	var gotContext map[string]any
	probe := &stubCapability{
		name:    "flight",
		intents: []string{"search_flights"},
		resp:    &capability.Response{Success: true, Message: "ok"},
	}
	o, store := newOrchestrator(t, &intent.Classification{Primary: "search_flights"}, probe)

	store.GetOrCreate(context.Background(), "conv-1")
	store.ApplyContextPatch(context.Background(), "conv-1", map[string]any{
		"destination":       "Rome",
		"preference.budget": 1500.0,
		"last_intent":       "search_hotels",
	})

	o.ProcessMessage(context.Background(), "conv-1", "another flight")
	gotContext = probe.gotReq.Context

	assert.Equal(t, "Rome", gotContext["destination"])
	assert.Equal(t, "search_hotels", gotContext["last_intent"])
	prefs, ok := gotContext["preferences"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1500.0, prefs["budget"])
}
