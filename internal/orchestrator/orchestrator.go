// ABOUTME: Orchestrator: drives each turn from received message to returned response.
// ABOUTME: Classifies, dispatches to one or many providers, merges, and persists.

package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/voyager-gateway/internal/capability"
	"github.com/2389/voyager-gateway/internal/intent"
	"github.com/2389/voyager-gateway/internal/session"
)

// DefaultTurnDeadline bounds one turn's provider work.
const DefaultTurnDeadline = 30 * time.Second

const (
	apologyMessage    = "Sorry, an unexpected error occurred. Please try again later."
	clarifyingMessage = "Sorry, I couldn't identify your request. Please mention a flight, hotel, restaurant, or excursion."
)

// Classifier is the routing collaborator.
type Classifier interface {
	Classify(ctx context.Context, text string, convContext map[string]any) *intent.Classification
}

// Orchestrator coordinates sessions, routing, and capability dispatch.
type Orchestrator struct {
	sessions     *session.Store
	registry     *capability.Registry
	router       Classifier
	turnDeadline time.Duration
	logger       *slog.Logger
}

// New creates an orchestrator. A non-positive deadline takes the default.
func New(sessions *session.Store, registry *capability.Registry, router Classifier, turnDeadline time.Duration, logger *slog.Logger) *Orchestrator {
	if turnDeadline <= 0 {
		turnDeadline = DefaultTurnDeadline
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sessions:     sessions,
		registry:     registry,
		router:       router,
		turnDeadline: turnDeadline,
		logger:       logger.With("component", "orchestrator"),
	}
}

// ProcessMessage runs one full turn. It always returns a presentable
// response; internal faults produce the apology rather than an error.
func (o *Orchestrator) ProcessMessage(ctx context.Context, conversationID, text string) *capability.Response {
	sess := o.sessions.GetOrCreate(ctx, conversationID)
	o.sessions.Append(ctx, conversationID, session.NewMessage(text, session.RoleUser))
	view := contextView(sess)

	cls := o.router.Classify(ctx, text, view)
	o.logger.Info("message classified",
		"conversation_id", conversationID,
		"intent", cls.Primary,
		"coordination", cls.RequiresCoordination)

	var resp *capability.Response
	if cls.RequiresCoordination {
		resp = o.dispatchCoordinated(ctx, conversationID, text, view, cls)
	} else {
		resp = o.dispatchSingle(ctx, conversationID, text, view, cls)
	}
	if resp == nil {
		resp = apology()
	}

	if len(resp.ContextPatch) > 0 {
		o.sessions.ApplyContextPatch(ctx, conversationID, resp.ContextPatch)
	}
	o.sessions.Append(ctx, conversationID, session.NewMessage(resp.Message, session.RoleAssistant))

	return resp
}

// GetConversation returns the session for a live conversation.
func (o *Orchestrator) GetConversation(ctx context.Context, conversationID string) (*session.Session, bool) {
	return o.sessions.Get(ctx, conversationID)
}

// EndConversation destroys the conversation's session.
func (o *Orchestrator) EndConversation(ctx context.Context, conversationID string) {
	o.sessions.Remove(ctx, conversationID)
	o.logger.Info("conversation ended", "conversation_id", conversationID)
}

// dispatchSingle routes the turn to the primary provider for the intent.
func (o *Orchestrator) dispatchSingle(ctx context.Context, conversationID, text string, view map[string]any, cls *intent.Classification) *capability.Response {
	if cls.Primary == "" {
		return clarify()
	}

	provider, ok := o.registry.PrimaryProviderFor(cls.Primary)
	if !ok {
		o.logger.Warn("no provider for intent", "intent", cls.Primary)
		return clarify()
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, o.turnDeadline)
	defer cancel()

	resp, err := provider.Handle(dispatchCtx, capability.Request{
		RawText: text,
		Intent:  cls.Primary,
		Context: view,
	})
	if err != nil || resp == nil {
		o.logger.Error("provider dispatch failed",
			"conversation_id", conversationID,
			"provider", provider.Name(),
			"error", err)
		return apology()
	}
	return resp
}

// dispatchCoordinated fans the turn out to every named provider in
// parallel and merges the results. One provider's failure or timeout never
// cancels the others.
func (o *Orchestrator) dispatchCoordinated(ctx context.Context, conversationID, text string, view map[string]any, cls *intent.Classification) *capability.Response {
	// Registration order fixes both dispatch slots and merge order.
	var targets []capability.Provider
	for _, p := range o.registry.All() {
		if _, named := cls.ProviderParams[p.Name()]; named {
			targets = append(targets, p)
		}
	}
	if len(targets) == 0 {
		return clarify()
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, o.turnDeadline)
	defer cancel()

	type slot struct {
		resp *capability.Response
		done bool
	}
	slots := make([]slot, len(targets))
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i, p := range targets {
		wg.Add(1)
		go func(i int, p capability.Provider) {
			defer wg.Done()
			resp, err := p.Handle(dispatchCtx, capability.Request{
				RawText:    text,
				Intent:     intent.DefaultIntent(p.Name()),
				Context:    view,
				Parameters: cls.ProviderParams[p.Name()],
			})
			if err != nil || resp == nil {
				o.logger.Error("coordinated dispatch failed",
					"conversation_id", conversationID,
					"provider", p.Name(),
					"error", err)
				resp = nil
			}
			mu.Lock()
			slots[i] = slot{resp: resp, done: true}
			mu.Unlock()
		}(i, p)
	}

	joined := make(chan struct{})
	go func() {
		wg.Wait()
		close(joined)
	}()

	select {
	case <-joined:
	case <-dispatchCtx.Done():
		// Stragglers past the deadline count as failed; their goroutines
		// wind down on their own once their calls observe cancellation.
		o.logger.Warn("turn deadline hit during coordination",
			"conversation_id", conversationID)
	}

	mu.Lock()
	defer mu.Unlock()
	results := make([]providerResult, len(targets))
	for i, p := range targets {
		results[i] = providerResult{name: p.Name()}
		if slots[i].done && slots[i].resp != nil {
			results[i].resp = slots[i].resp
		}
	}
	return merge(results)
}

// contextView flattens a session's context into the read-only map handed
// to the router and providers.
func contextView(sess *session.Session) map[string]any {
	view := make(map[string]any, len(sess.Context.Memory)+3)
	for k, v := range sess.Context.Memory {
		view[k] = v
	}
	if len(sess.Context.Preferences) > 0 {
		view["preferences"] = sess.Context.Preferences
	}
	if sess.Context.LastIntent != "" {
		view["last_intent"] = sess.Context.LastIntent
	}
	if len(sess.Context.LastEntities) > 0 {
		view["last_entities"] = sess.Context.LastEntities
	}
	return view
}

func apology() *capability.Response {
	return &capability.Response{
		Success:     false,
		Message:     apologyMessage,
		Suggestions: []string{"Try again"},
	}
}

func clarify() *capability.Response {
	return &capability.Response{
		Success: true,
		Message: clarifyingMessage,
		Suggestions: []string{
			"Search flights", "Search hotels", "Find restaurants", "Browse excursions"},
	}
}
