// ABOUTME: Restaurant capability provider: search, details, table reservations.
// ABOUTME: Tracks cuisine preferences in the session context via patches.

package capability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/voyager-gateway/internal/apierr"
	"github.com/2389/voyager-gateway/internal/interpreter"
)

// RestaurantBackend is the slice of the restaurants API this provider consumes.
type RestaurantBackend interface {
	SearchRestaurants(ctx context.Context, params map[string]any) (map[string]any, error)
	RestaurantDetails(ctx context.Context, restaurantID string) (map[string]any, error)
	ReserveTable(ctx context.Context, restaurantID string, reservation map[string]any) (map[string]any, error)
}

// RestaurantProvider handles restaurant-related intents.
type RestaurantProvider struct {
	backend RestaurantBackend
	interp  interpreter.Interpreter
	logger  *slog.Logger
}

var _ Provider = (*RestaurantProvider)(nil)

// NewRestaurantProvider creates the restaurant capability.
func NewRestaurantProvider(backend RestaurantBackend, interp interpreter.Interpreter, logger *slog.Logger) *RestaurantProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &RestaurantProvider{
		backend: backend,
		interp:  interp,
		logger:  logger.With("component", "capability", "provider", "restaurant"),
	}
}

func (p *RestaurantProvider) Name() string { return "restaurant" }

func (p *RestaurantProvider) SupportedIntents() []string {
	return []string{"search_restaurants", "restaurant_info", "reserve_table"}
}

func (p *RestaurantProvider) Handle(ctx context.Context, req Request) (*Response, error) {
	p.logger.Info("handling restaurant intent", "intent", req.Intent)

	switch req.Intent {
	case "search_restaurants":
		return p.search(ctx, req), nil
	case "restaurant_info":
		return p.details(ctx, req), nil
	case "reserve_table":
		return p.reserve(ctx, req), nil
	default:
		return failure(
			"I'm not sure how to help with that. Would you like restaurant recommendations?",
			"Search restaurants", "View popular places"), nil
	}
}

func (p *RestaurantProvider) search(ctx context.Context, req Request) *Response {
	params := extractMissing(ctx, p.interp, p.logger, "restaurant", req, []string{"location"})
	if str(params["location"]) == "" {
		return failure(
			"Where would you like to dine? Please tell me a city or neighborhood.",
			"Search restaurants", "Get recommendations")
	}

	payload, err := p.backend.SearchRestaurants(ctx, params)
	if err != nil {
		return p.callFailure(err, "search restaurants")
	}

	restaurants, _ := payload["restaurants"].([]any)
	if len(restaurants) == 0 {
		return &Response{
			Success:     true,
			Message:     "I couldn't find any restaurants matching your criteria.",
			Suggestions: []string{"Try different cuisine", "Change location"},
		}
	}

	patch := map[string]any{
		"last_intent": req.Intent,
		"location":    params["location"],
	}
	if cuisine := str(params["cuisine"]); cuisine != "" {
		patch["preference.cuisine"] = cuisine
	}

	enhanced := p.interp.Enhance(ctx, "restaurant", payload, req.Context)
	return &Response{
		Success:      true,
		Message:      fmt.Sprintf("I found %d restaurant(s) in %s.", len(restaurants), str(params["location"])),
		Data:         enhanced,
		Suggestions:  []string{"View details", "Make reservation", "Read reviews"},
		ContextPatch: patch,
	}
}

func (p *RestaurantProvider) details(ctx context.Context, req Request) *Response {
	restaurantID := req.StringParam("restaurant_id")
	if restaurantID == "" {
		return failure(
			"Please specify which restaurant you'd like to know more about.",
			"Search restaurants", "View popular places")
	}

	payload, err := p.backend.RestaurantDetails(ctx, restaurantID)
	if err != nil {
		return p.callFailure(err, "look up that restaurant")
	}

	enhanced := p.interp.Enhance(ctx, "restaurant", payload, req.Context)
	return &Response{
		Success:      true,
		Message:      "Here are the restaurant details.",
		Data:         map[string]any{"restaurant": enhanced},
		Suggestions:  []string{"Make reservation", "View menu", "Read reviews"},
		ContextPatch: map[string]any{"last_intent": req.Intent},
	}
}

func (p *RestaurantProvider) reserve(ctx context.Context, req Request) *Response {
	restaurantID := req.StringParam("restaurant_id")
	dateTime := req.StringParam("date_time")
	if restaurantID == "" || dateTime == "" {
		return failure(
			"To reserve a table, I need the restaurant and a date and time.",
			"Search restaurants first", "View popular places")
	}

	payload, err := p.backend.ReserveTable(ctx, restaurantID, map[string]any{
		"date_time":  dateTime,
		"party_size": req.IntParam("party_size", 2),
	})
	if err != nil {
		return p.callFailure(err, "reserve the table")
	}

	msg := "Your table is reserved."
	if conf := str(payload["confirmation"]); conf != "" {
		msg = fmt.Sprintf("Your table is reserved. Confirmation number: %s.", conf)
	}

	return &Response{
		Success:     true,
		Message:     msg,
		Data:        map[string]any{"reservation": payload},
		Suggestions: []string{"View reservation", "Get directions"},
		ContextPatch: map[string]any{
			"last_intent":      req.Intent,
			"last_reservation": payload["confirmation"],
		},
	}
}

func (p *RestaurantProvider) callFailure(err error, action string) *Response {
	p.logger.Warn("restaurant backend call failed", "error", err)

	switch {
	case apierr.IsNotFound(err):
		return failure(
			"Sorry, I couldn't find that restaurant.",
			"Search restaurants", "View popular places")
	case apierr.IsConnectionExhausted(err):
		return failure(
			fmt.Sprintf("I'm having trouble reaching the restaurant service to %s. Please try again in a moment.", action),
			"Try again")
	default:
		return failure(
			fmt.Sprintf("There was a problem trying to %s. Please review your request and try again.", action),
			"Try again", "Check your input")
	}
}
