// ABOUTME: Flight capability provider: search, details, availability, status.
// ABOUTME: Extracts parameters, calls the flights backend, and answers conversationally.

package capability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/voyager-gateway/internal/apierr"
	"github.com/2389/voyager-gateway/internal/interpreter"
)

// FlightBackend is the slice of the flights API this provider consumes.
type FlightBackend interface {
	SearchFlights(ctx context.Context, params map[string]any) (map[string]any, error)
	FlightDetails(ctx context.Context, flightID string) (map[string]any, error)
	CheckAvailability(ctx context.Context, flightID string, params map[string]any) (map[string]any, error)
	FlightStatus(ctx context.Context, flightID string) (map[string]any, error)
}

// FlightProvider handles flight-related intents.
type FlightProvider struct {
	backend FlightBackend
	interp  interpreter.Interpreter
	logger  *slog.Logger
}

var _ Provider = (*FlightProvider)(nil)

// NewFlightProvider creates the flight capability.
func NewFlightProvider(backend FlightBackend, interp interpreter.Interpreter, logger *slog.Logger) *FlightProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlightProvider{
		backend: backend,
		interp:  interp,
		logger:  logger.With("component", "capability", "provider", "flight"),
	}
}

func (p *FlightProvider) Name() string { return "flight" }

func (p *FlightProvider) SupportedIntents() []string {
	return []string{"search_flights", "flight_info", "check_availability", "flight_status"}
}

func (p *FlightProvider) Handle(ctx context.Context, req Request) (*Response, error) {
	p.logger.Info("handling flight intent", "intent", req.Intent)

	switch req.Intent {
	case "search_flights":
		return p.search(ctx, req), nil
	case "flight_info":
		return p.details(ctx, req), nil
	case "check_availability":
		return p.availability(ctx, req), nil
	case "flight_status":
		return p.status(ctx, req), nil
	default:
		return failure(
			"I'm not sure how to help with that. Would you like to search for flights?",
			"Search flights", "Check flight status"), nil
	}
}

func (p *FlightProvider) search(ctx context.Context, req Request) *Response {
	params := extractMissing(ctx, p.interp, p.logger, "flight", req, []string{"destination"})
	if str(params["destination"]) == "" {
		return failure(
			"Where would you like to fly to? Please tell me your destination.",
			"Search flights", "View popular routes")
	}

	payload, err := p.backend.SearchFlights(ctx, params)
	if err != nil {
		return p.callFailure(err, "search flights")
	}

	flights, _ := payload["flights"].([]any)
	if len(flights) == 0 {
		return &Response{
			Success: true,
			Message: "No flights found matching your criteria. Would you like to try different options?",
			Suggestions: []string{
				"Try different dates", "Check nearby airports", "Adjust price range"},
		}
	}

	enhanced := p.interp.Enhance(ctx, "flight", payload, req.Context)
	return &Response{
		Success:     true,
		Message:     fmt.Sprintf("Here are the available flights: I found %d option(s) to %s.", len(flights), str(params["destination"])),
		Data:        enhanced,
		Suggestions: []string{"View more details", "Compare flights", "Refine search"},
		ContextPatch: map[string]any{
			"last_intent": req.Intent,
			"destination": params["destination"],
		},
	}
}

func (p *FlightProvider) details(ctx context.Context, req Request) *Response {
	flightID := req.StringParam("flight_id")
	if flightID == "" {
		return failure(
			"Please specify which flight you'd like to know more about.",
			"Search flights", "Check flight status")
	}

	payload, err := p.backend.FlightDetails(ctx, flightID)
	if err != nil {
		return p.callFailure(err, "look up that flight")
	}

	enhanced := p.interp.Enhance(ctx, "flight", payload, req.Context)
	return &Response{
		Success:      true,
		Message:      fmt.Sprintf("Here are the details for flight %s.", flightID),
		Data:         map[string]any{"flight": enhanced},
		Suggestions:  []string{"View baggage rules", "Compare with other flights"},
		ContextPatch: map[string]any{"last_intent": req.Intent},
	}
}

func (p *FlightProvider) availability(ctx context.Context, req Request) *Response {
	flightID := req.StringParam("flight_id")
	if flightID == "" {
		return failure(
			"Please provide the flight and date to check availability.",
			"Search flights first", "View flight schedule")
	}

	query := map[string]any{"seats": req.IntParam("seats", 1)}
	if class := req.StringParam("class_preference"); class != "" {
		query["class"] = class
	}

	payload, err := p.backend.CheckAvailability(ctx, flightID, query)
	if err != nil {
		return p.callFailure(err, "check availability")
	}

	available, _ := payload["is_available"].(bool)
	msg := fmt.Sprintf("Flight %s has seats available.", flightID)
	suggestions := []string{"View more details", "Check other dates"}
	if !available {
		msg = fmt.Sprintf("Sorry, flight %s is not available for that request.", flightID)
		suggestions = []string{"Check other dates", "Search different flights"}
	}

	return &Response{
		Success:      true,
		Message:      msg,
		Data:         map[string]any{"availability": payload},
		Suggestions:  suggestions,
		ContextPatch: map[string]any{"last_intent": req.Intent},
	}
}

func (p *FlightProvider) status(ctx context.Context, req Request) *Response {
	flightID := req.StringParam("flight_number")
	if flightID == "" {
		flightID = req.StringParam("flight_id")
	}
	if flightID == "" {
		return failure(
			"Please provide a flight number to check status.",
			"Search flights")
	}

	payload, err := p.backend.FlightStatus(ctx, flightID)
	if err != nil {
		return p.callFailure(err, "check that flight's status")
	}

	return &Response{
		Success:      true,
		Message:      fmt.Sprintf("Here is the current status of flight %s.", flightID),
		Data:         map[string]any{"status": payload},
		Suggestions:  []string{"Get updates", "View route map"},
		ContextPatch: map[string]any{"last_intent": req.Intent},
	}
}

func (p *FlightProvider) callFailure(err error, action string) *Response {
	p.logger.Warn("flight backend call failed", "error", err)

	switch {
	case apierr.IsNotFound(err):
		return failure(
			"Sorry, I couldn't find that flight. Please check the flight number.",
			"Search flights", "View popular routes")
	case apierr.IsConnectionExhausted(err):
		return failure(
			fmt.Sprintf("I'm having trouble reaching the flight service to %s. Please try again in a moment.", action),
			"Try again")
	default:
		return failure(
			fmt.Sprintf("There was a problem trying to %s. Please review your request and try again.", action),
			"Try again", "Check your input")
	}
}
